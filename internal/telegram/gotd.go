package telegram

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"sync"
	"time"

	"github.com/gotd/td/session"
	gotd "github.com/gotd/td/telegram"
	"github.com/gotd/td/telegram/auth"
	"github.com/gotd/td/tg"
	"github.com/gotd/td/tgerr"
	"github.com/rs/zerolog/log"
)

// Options configures clients built by the Factory.
type Options struct {
	DefaultAPIID   int
	DefaultAPIHash string
	ConnectTimeout time.Duration
	AppVersion     string
}

var (
	_ Factory = (*GotdFactory)(nil)
	_ Client  = (*gotdClient)(nil)
)

// GotdFactory builds clients backed by github.com/gotd/td.
type GotdFactory struct {
	opts Options
}

// NewFactory returns a Factory producing gotd clients.
func NewFactory(opts Options) *GotdFactory {
	if opts.ConnectTimeout <= 0 {
		opts.ConnectTimeout = 20 * time.Second
	}
	if opts.AppVersion == "" {
		opts.AppVersion = "dev"
	}
	return &GotdFactory{opts: opts}
}

// NewLogin implements Factory.
func (f *GotdFactory) NewLogin(apiID int, apiHash, identity string) (Client, error) {
	apiID, apiHash = f.credentials(apiID, apiHash)
	if apiID <= 0 || apiHash == "" {
		return nil, errors.New("api_id and api_hash are required")
	}
	return newGotdClient(apiID, apiHash, identity, new(session.StorageMemory), false, f.opts), nil
}

// FromSession implements Factory.
func (f *GotdFactory) FromSession(sessionString string) (Client, error) {
	decoded, err := DecodeSessionString(sessionString)
	if err != nil {
		return nil, err
	}

	storage := new(session.StorageMemory)
	if err := storage.StoreSession(context.Background(), decoded.Data); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedSession, err)
	}

	apiID, apiHash := f.credentials(decoded.APIID, decoded.APIHash)
	if apiID <= 0 || apiHash == "" {
		return nil, fmt.Errorf("%w: missing app credentials", ErrMalformedSession)
	}
	return newGotdClient(apiID, apiHash, "session", storage, true, f.opts), nil
}

func (f *GotdFactory) credentials(apiID int, apiHash string) (int, string) {
	if apiID <= 0 {
		apiID = f.opts.DefaultAPIID
	}
	if apiHash == "" {
		apiHash = f.opts.DefaultAPIHash
	}
	return apiID, apiHash
}

// gotdClient keeps a gotd client running in a background goroutine between
// Connect and Stop so the connection can outlive a single request.
type gotdClient struct {
	identity       string
	apiID          int
	apiHash        string
	storage        *session.StorageMemory
	requireAuth    bool
	connectTimeout time.Duration

	client *gotd.Client

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
	runErr error

	peersMu sync.Mutex
	peers   map[string]tg.InputPeerClass
}

func newGotdClient(apiID int, apiHash, identity string, storage *session.StorageMemory, requireAuth bool, opts Options) *gotdClient {
	client := gotd.NewClient(apiID, apiHash, gotd.Options{
		SessionStorage: storage,
		Device: gotd.DeviceConfig{
			DeviceModel:   "tg-gateway",
			SystemVersion: runtime.GOOS,
			AppVersion:    opts.AppVersion,
		},
	})

	return &gotdClient{
		identity:       identity,
		apiID:          apiID,
		apiHash:        apiHash,
		storage:        storage,
		requireAuth:    requireAuth,
		connectTimeout: opts.ConnectTimeout,
		client:         client,
		peers:          make(map[string]tg.InputPeerClass),
	}
}

func (c *gotdClient) Connect(ctx context.Context) error {
	c.mu.Lock()
	if c.cancel != nil {
		c.mu.Unlock()
		return nil
	}
	runCtx, cancel := context.WithCancel(context.Background())
	ready := make(chan struct{})
	done := make(chan struct{})
	c.cancel = cancel
	c.done = done
	c.mu.Unlock()

	go func() {
		defer close(done)
		err := c.client.Run(runCtx, func(ctx context.Context) error {
			close(ready)
			<-ctx.Done()
			return nil
		})
		c.mu.Lock()
		c.runErr = err
		c.mu.Unlock()
	}()

	timer := time.NewTimer(c.connectTimeout)
	defer timer.Stop()

	select {
	case <-ready:
	case <-done:
		err := c.takeRunErr()
		c.reset()
		if err == nil {
			err = errors.New("connection closed")
		}
		return fmt.Errorf("connect %s: %w", c.identity, err)
	case <-timer.C:
		_ = c.Stop()
		return fmt.Errorf("connect %s: %w", c.identity, context.DeadlineExceeded)
	case <-ctx.Done():
		_ = c.Stop()
		return fmt.Errorf("connect %s: %w", c.identity, ctx.Err())
	}

	log.Debug().Str("client", c.identity).Msg("telegram client connected")

	if !c.requireAuth {
		return nil
	}
	status, err := c.client.Auth().Status(ctx)
	if err != nil {
		_ = c.Stop()
		return fmt.Errorf("auth status: %w", err)
	}
	if !status.Authorized {
		_ = c.Stop()
		return ErrUnauthorized
	}
	return nil
}

func (c *gotdClient) Stop() error {
	c.mu.Lock()
	cancel, done := c.cancel, c.done
	c.cancel = nil
	c.mu.Unlock()

	if cancel == nil {
		return nil
	}
	cancel()
	<-done

	log.Debug().Str("client", c.identity).Msg("telegram client stopped")

	err := c.takeRunErr()
	if err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

func (c *gotdClient) takeRunErr() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	err := c.runErr
	c.runErr = nil
	return err
}

func (c *gotdClient) reset() {
	c.mu.Lock()
	if c.cancel != nil {
		c.cancel()
	}
	c.cancel = nil
	c.mu.Unlock()
}

func (c *gotdClient) api() (*tg.Client, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.cancel == nil {
		return nil, ErrNotConnected
	}
	return c.client.API(), nil
}

// identityErrors are the RPC errors meaning the app or the phone number
// cannot start a login.
var identityErrors = []string{
	"API_ID_INVALID",
	"API_ID_PUBLISHED_FLOOD",
	"PHONE_NUMBER_INVALID",
	"PHONE_NUMBER_BANNED",
	"PHONE_NUMBER_APP_SIGNUP_FORBIDDEN",
}

func classifyIdentityErr(err error) error {
	if tgerr.Is(err, identityErrors...) {
		return fmt.Errorf("%w: %v", ErrInvalidCredentials, err)
	}
	return err
}

func (c *gotdClient) SendCode(ctx context.Context, phone string) (string, error) {
	if _, err := c.api(); err != nil {
		return "", err
	}
	sent, err := c.client.Auth().SendCode(ctx, phone, auth.SendCodeOptions{})
	if err != nil {
		return "", classifyIdentityErr(err)
	}
	code, ok := sent.(*tg.AuthSentCode)
	if !ok {
		return "", fmt.Errorf("unexpected sent code response %T", sent)
	}
	return code.PhoneCodeHash, nil
}

func (c *gotdClient) SignIn(ctx context.Context, phone, codeHash, code string) (SignInResult, error) {
	if _, err := c.api(); err != nil {
		return SignedIn, err
	}
	_, err := c.client.Auth().SignIn(ctx, phone, code, codeHash)
	if errors.Is(err, auth.ErrPasswordAuthNeeded) {
		return SecondFactorRequired, nil
	}
	if err != nil {
		return SignedIn, err
	}
	return SignedIn, nil
}

func (c *gotdClient) CheckPassword(ctx context.Context, password string) error {
	if _, err := c.api(); err != nil {
		return err
	}
	_, err := c.client.Auth().Password(ctx, password)
	if errors.Is(err, auth.ErrPasswordInvalid) {
		return ErrBadPassword
	}
	return err
}

func (c *gotdClient) ExportSession(ctx context.Context) (string, error) {
	data, err := c.storage.LoadSession(ctx)
	if err != nil {
		return "", fmt.Errorf("load session: %w", err)
	}
	return SessionString{APIID: c.apiID, APIHash: c.apiHash, Data: data}.Encode()
}

func (c *gotdClient) Self(ctx context.Context) (User, error) {
	if _, err := c.api(); err != nil {
		return User{}, err
	}
	me, err := c.client.Self(ctx)
	if err != nil {
		return User{}, err
	}
	return userFromTG(me), nil
}
