package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"

	"github.com/zhouzirui/tg-gateway/internal/apperr"
	"github.com/zhouzirui/tg-gateway/internal/config"
	"github.com/zhouzirui/tg-gateway/internal/logging"
	authmodel "github.com/zhouzirui/tg-gateway/internal/model/auth"
	"github.com/zhouzirui/tg-gateway/internal/model/common"
	"github.com/zhouzirui/tg-gateway/internal/service/account"
	"github.com/zhouzirui/tg-gateway/internal/service/auth"
	"github.com/zhouzirui/tg-gateway/internal/telegram"
)

func main() {
	envErr := godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("配置加载失败")
	}
	logging.Setup(cfg.Log.Level, "console")
	if envErr != nil {
		log.Warn().Err(envErr).Msg("无法加载 .env，改用系统环境变量")
	}

	mode := flag.String("mode", "login", "测试模式: login 或 verify")
	phone := flag.String("phone", "", "login 模式的手机号，例如 +8613800000000")
	apiID := flag.Int("api-id", cfg.Telegram.APIID, "Telegram api_id，默认使用 TELEGRAM_API_ID")
	apiHash := flag.String("api-hash", cfg.Telegram.APIHash, "Telegram api_hash，默认使用 TELEGRAM_API_HASH")
	sessionString := flag.String("session", "", "verify 模式要校验的 session string")
	timeout := flag.Duration("timeout", 5*time.Minute, "整个流程的超时时间")

	flag.Parse()

	factory := telegram.NewFactory(telegram.Options{
		DefaultAPIID:   cfg.Telegram.APIID,
		DefaultAPIHash: cfg.Telegram.APIHash,
		ConnectTimeout: cfg.Telegram.ConnectTimeout,
		AppVersion:     "logintester",
	})

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	switch *mode {
	case "login":
		runLogin(ctx, factory, cfg, *apiID, *apiHash, *phone)
	case "verify":
		runVerify(ctx, factory, cfg, *sessionString)
	default:
		flag.Usage()
		log.Fatal().Msg("请通过 -mode=login 或 -mode=verify 指定测试模式")
	}
}

func runLogin(ctx context.Context, factory telegram.Factory, cfg *config.Config, apiID int, apiHash, phone string) {
	if strings.TrimSpace(phone) == "" {
		log.Fatal().Msg("login 模式需要通过 -phone 指定手机号")
	}

	store := auth.NewStore(cfg.Auth.SessionTTL)
	defer store.Close()
	svc := auth.NewService(factory, store, cfg.Telegram.CallTimeout)

	started, err := svc.Initiate(ctx, authmodel.InitiateRequest{
		APIID:       common.FlexInt(apiID),
		APIHash:     apiHash,
		PhoneNumber: phone,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("发送验证码失败")
	}
	log.Info().Str("session_id", started.SessionID).Msg(started.Message)

	in := bufio.NewReader(os.Stdin)
	req := authmodel.CompleteRequest{
		SessionID: started.SessionID,
		PhoneCode: prompt(in, "验证码: "),
	}

	for {
		res, err := svc.Complete(ctx, req)
		switch {
		case err == nil:
			fmt.Println(res.SessionString)
			log.Info().Msg("登录成功，session string 已输出到标准输出")
			return
		case errors.Is(err, apperr.ErrPasswordRequired):
			req.Password = prompt(in, "两步验证密码: ")
		case errors.Is(err, apperr.ErrBadPassword):
			log.Warn().Msg("密码错误，请重试")
			req.Password = prompt(in, "两步验证密码: ")
		default:
			log.Fatal().Err(err).Msg("登录失败")
		}
	}
}

func runVerify(ctx context.Context, factory telegram.Factory, cfg *config.Config, sessionString string) {
	if strings.TrimSpace(sessionString) == "" {
		log.Fatal().Msg("verify 模式需要通过 -session 提供 session string")
	}

	svc := account.NewService(factory, cfg.Telegram.CallTimeout)
	me, err := svc.GetMe(ctx, sessionString)
	if err != nil {
		log.Fatal().Err(err).Msg("session string 校验失败")
	}

	log.Info().
		Int64("id", me.ID).
		Str("username", me.Username).
		Str("first_name", me.FirstName).
		Bool("premium", me.IsPremium).
		Msg("session string 有效")
}

func prompt(in *bufio.Reader, label string) string {
	fmt.Fprint(os.Stderr, label)
	line, err := in.ReadString('\n')
	if err != nil && line == "" {
		log.Fatal().Err(err).Msg("读取输入失败")
	}
	return strings.TrimSpace(line)
}
