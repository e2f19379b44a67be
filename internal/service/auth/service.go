package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/zhouzirui/tg-gateway/internal/apperr"
	authmodel "github.com/zhouzirui/tg-gateway/internal/model/auth"
	"github.com/zhouzirui/tg-gateway/internal/service/remote"
	"github.com/zhouzirui/tg-gateway/internal/telegram"
	"github.com/zhouzirui/tg-gateway/pkg/utils"
)

var (
	sessionNamespace  = uuid.NewSHA1(uuid.NameSpaceURL, []byte("tg-gateway/auth-session"))
	identityNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("tg-gateway/login-client"))
)

// SessionID derives the pending-login id from the phone number and the
// code hash the platform issued for it.
func SessionID(phone, codeHash string) string {
	return "auth_" + uuid.NewSHA1(sessionNamespace, []byte(phone+codeHash)).String()
}

// clientIdentity names the login client for a phone number.
func clientIdentity(phone string) string {
	return "temp_" + uuid.NewSHA1(identityNamespace, []byte(phone)).String()
}

// Service drives the two-call login handshake.
type Service struct {
	factory     telegram.Factory
	store       *Store
	callTimeout time.Duration
}

// NewService creates the login state machine on top of store.
func NewService(factory telegram.Factory, store *Store, callTimeout time.Duration) *Service {
	if callTimeout <= 0 {
		callTimeout = 30 * time.Second
	}
	return &Service{factory: factory, store: store, callTimeout: callTimeout}
}

// Store exposes the pending-session store.
func (s *Service) Store() *Store {
	return s.store
}

// Initiate connects a fresh client and asks the platform to send a code.
func (s *Service) Initiate(ctx context.Context, req authmodel.InitiateRequest) (authmodel.InitiateResult, error) {
	phone := strings.TrimSpace(req.PhoneNumber)
	if phone == "" {
		return authmodel.InitiateResult{}, apperr.New(apperr.KindInvalidRequest, "initiate", errors.New("phone_number is required"))
	}

	identity := clientIdentity(phone)
	client, err := s.factory.NewLogin(int(req.APIID), strings.TrimSpace(req.APIHash), identity)
	if err != nil {
		return authmodel.InitiateResult{}, apperr.New(apperr.KindInvalidCredentials, "initiate", err)
	}

	callCtx, cancel := context.WithTimeout(ctx, s.callTimeout)
	defer cancel()

	if err := client.Connect(callCtx); err != nil {
		_ = client.Stop()
		return authmodel.InitiateResult{}, remote.Err(apperr.KindInvalidCredentials, "connect", err)
	}

	codeHash, err := client.SendCode(callCtx, phone)
	if err != nil {
		_ = client.Stop()
		log.Warn().Err(err).Str("phone", utils.MaskPhone(phone)).Msg("send code rejected")
		return authmodel.InitiateResult{}, remote.Err(apperr.KindDeliveryFailed, "send code", err)
	}

	session := &Session{
		ID:       SessionID(phone, codeHash),
		Phone:    phone,
		CodeHash: codeHash,
		Identity: identity,
		Client:   client,
		state:    authmodel.StateCodeSent,
	}
	s.store.Put(session)

	log.Info().
		Str("session_id", session.ID).
		Str("client", session.Identity).
		Str("phone", utils.MaskPhone(phone)).
		Msg("verification code sent")

	return authmodel.InitiateResult{
		SessionID:     session.ID,
		PhoneCodeHash: codeHash,
		Message:       fmt.Sprintf("Code sent to %s. Please provide the code to complete authentication.", phone),
	}, nil
}

// Complete signs in with the code, verifies the password when the account
// has a second factor, and exports the session string.
//
// A missing password keeps the session so the caller can retry with one on
// the same connection; so does a wrong password. Any other failure discards
// the session.
func (s *Service) Complete(ctx context.Context, req authmodel.CompleteRequest) (authmodel.CompleteResult, error) {
	session, ok := s.store.Get(strings.TrimSpace(req.SessionID))
	if !ok {
		return authmodel.CompleteResult{}, apperr.New(apperr.KindUnknownSession, "complete", errors.New("Invalid session ID"))
	}

	session.mu.Lock()
	defer session.mu.Unlock()

	// The session may have been completed, swept or replaced while waiting.
	if !s.store.holds(session) {
		return authmodel.CompleteResult{}, apperr.New(apperr.KindUnknownSession, "complete", errors.New("Invalid session ID"))
	}

	callCtx, cancel := context.WithTimeout(ctx, s.callTimeout)
	defer cancel()

	if session.state == authmodel.StateCodeSent {
		code := strings.TrimSpace(req.PhoneCode)
		if code == "" {
			return authmodel.CompleteResult{}, apperr.New(apperr.KindInvalidRequest, "complete", errors.New("phone_code is required"))
		}

		result, err := session.Client.SignIn(callCtx, session.Phone, session.CodeHash, code)
		if err != nil {
			s.fail(session, err)
			return authmodel.CompleteResult{}, remote.Err(apperr.KindInvalidCredentials, "sign in", err)
		}

		if result == telegram.SecondFactorRequired {
			session.state = authmodel.StatePasswordRequired
		} else {
			session.state = authmodel.StateAuthenticated
		}
	}

	if session.state == authmodel.StatePasswordRequired {
		if req.Password == "" {
			log.Info().Str("session_id", session.ID).Msg("second factor required")
			return authmodel.CompleteResult{}, apperr.New(apperr.KindPasswordRequired, "complete", nil)
		}

		err := session.Client.CheckPassword(callCtx, req.Password)
		if errors.Is(err, telegram.ErrBadPassword) {
			log.Info().Str("session_id", session.ID).Msg("second factor rejected")
			return authmodel.CompleteResult{}, apperr.New(apperr.KindBadPassword, "check password", err)
		}
		if err != nil {
			s.fail(session, err)
			return authmodel.CompleteResult{}, remote.Err(apperr.KindUnexpected, "check password", err)
		}
		session.state = authmodel.StateAuthenticated
	}

	sessionString, err := session.Client.ExportSession(callCtx)
	if err != nil {
		s.fail(session, err)
		return authmodel.CompleteResult{}, remote.Err(apperr.KindUnexpected, "export session", err)
	}

	session.state = authmodel.StateExported
	if s.store.Take(session) {
		stopClient(session, "completed")
	}

	log.Info().Str("session_id", session.ID).Str("phone", utils.MaskPhone(session.Phone)).Msg("authentication completed")

	return authmodel.CompleteResult{SessionString: sessionString}, nil
}

func (s *Service) fail(session *Session, err error) {
	session.state = authmodel.StateFailed
	s.store.Evict(session)
	log.Warn().Err(err).Str("session_id", session.ID).Msg("authentication failed, session discarded")
}
