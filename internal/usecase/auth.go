package usecase

import (
	"context"
	"crypto/rand"
	"fmt"
	"math/big"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/thiagohmg/capitaoanimais/internal/cookie"
	"github.com/thiagohmg/capitaoanimais/internal/domain"
	"github.com/thiagohmg/capitaoanimais/internal/email"
	"github.com/thiagohmg/capitaoanimais/internal/metrics"
	"github.com/thiagohmg/capitaoanimais/internal/token"
)

const (
	verificationTTL = cookie.VerificationMaxAge * time.Second
	sessionTTL      = cookie.SessionMaxAge * time.Second
)

var (
	emailShape = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
	codeShape  = regexp.MustCompile(`^[0-9]{6}$`)
)

// AuthUsecase runs the two-step email verification flow and answers
// session queries. It is pure of HTTP: it consumes and produces token
// strings, and the transport layer owns the cookies around them.
//
// Tokens are stateless, so a session removed only from the client remains
// cryptographically valid until its natural expiry; there is no server-side
// revocation list.
type AuthUsecase struct {
	codec  *token.Codec  // nil when the signing secret is absent
	signer *token.Signer // nil when the signing secret is absent
	email  email.Sender  // nil when the mail credential is absent
	// magicLinkBase is the public origin the emailed link points at.
	magicLinkBase string
}

func NewAuthUsecase(codec *token.Codec, signer *token.Signer, sender email.Sender, magicLinkBase string) *AuthUsecase {
	return &AuthUsecase{
		codec:         codec,
		signer:        signer,
		email:         sender,
		magicLinkBase: strings.TrimSuffix(magicLinkBase, "/"),
	}
}

// Configured reports whether a signing secret was provided. Endpoints that
// need the secret turn false into a 500-equivalent, not a process crash.
func (u *AuthUsecase) Configured() bool {
	return u.codec != nil
}

// RequestVerification starts a verification flow: mint a one-time code,
// embed its keyed hash and the normalized email in a short-lived signed
// token, and email the plaintext code plus a magic link carrying the whole
// token. The token is returned even when delivery fails, so the caller can
// keep the cookie set and let the user retry without restarting the flow.
func (u *AuthUsecase) RequestVerification(ctx context.Context, emailAddr, name string) (string, error) {
	if u.codec == nil || u.email == nil {
		return "", domain.ErrNotConfigured
	}

	addr := NormalizeEmail(emailAddr)
	if !emailShape.MatchString(addr) {
		return "", domain.ErrInvalidEmail
	}
	name = strings.TrimSpace(name)

	code, err := generateCode()
	if err != nil {
		return "", fmt.Errorf("generate code: %w", err)
	}

	verifToken, err := u.codec.Mint(token.Claims{
		Email:    addr,
		Name:     name,
		CodeHash: u.signer.CodeHash(code),
	}, verificationTTL)
	if err != nil {
		return "", fmt.Errorf("mint verification token: %w", err)
	}

	link := u.magicLinkBase + "/account.html?token=" + url.QueryEscape(verifToken)

	start := time.Now()
	err = u.email.Send(ctx, addr, verificationSubject, verificationBody(name, code, link))
	metrics.EmailSendDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.VerificationRequests.WithLabelValues("email_failed").Inc()
		return verifToken, fmt.Errorf("send verification email: %w", err)
	}

	metrics.VerificationRequests.WithLabelValues("sent").Inc()
	return verifToken, nil
}

// ConfirmCode exchanges a correctly proven code for a session token. The
// submitted code is hashed with the same keyed hash and compared to the
// verification token's codeHash in constant time. A mismatch leaves the
// flow open: the caller keeps the verification cookie and may try again.
func (u *AuthUsecase) ConfirmCode(verifToken, code string) (string, domain.Identity, error) {
	if u.codec == nil {
		return "", domain.Identity{}, domain.ErrNotConfigured
	}

	code = strings.TrimSpace(code)
	if !codeShape.MatchString(code) {
		return "", domain.Identity{}, domain.ErrInvalidCode
	}
	if verifToken == "" {
		return "", domain.Identity{}, domain.ErrVerificationExpired
	}

	claims, err := u.codec.ParseAndVerify(verifToken)
	if err != nil {
		return "", domain.Identity{}, domain.ErrVerificationInvalid
	}

	if !u.signer.HashEqual(u.signer.CodeHash(code), claims.CodeHash) {
		metrics.CodeConfirmations.WithLabelValues("mismatch").Inc()
		return "", domain.Identity{}, domain.ErrCodeMismatch
	}

	session, identity, err := u.mintSession(claims)
	if err != nil {
		return "", domain.Identity{}, err
	}
	metrics.CodeConfirmations.WithLabelValues("ok").Inc()
	metrics.SessionsIssued.WithLabelValues("code").Inc()
	return session, identity, nil
}

// RedeemToken is the magic-link entry into the same confirmation: a whole
// verification token, received out of band, stands in for typing the code.
// Validity of the token is the only requirement.
func (u *AuthUsecase) RedeemToken(rawToken string) (string, domain.Identity, error) {
	if u.codec == nil {
		return "", domain.Identity{}, domain.ErrNotConfigured
	}

	claims, err := u.codec.ParseAndVerify(rawToken)
	if err != nil {
		return "", domain.Identity{}, domain.ErrTokenInvalid
	}

	session, identity, err := u.mintSession(claims)
	if err != nil {
		return "", domain.Identity{}, err
	}
	metrics.SessionsIssued.WithLabelValues("link").Inc()
	return session, identity, nil
}

// Authenticate answers "is this request authenticated, as whom" from a
// session token. Absent, malformed, or expired tokens are a normal
// unauthenticated outcome, never an error.
func (u *AuthUsecase) Authenticate(sessionToken string) (domain.Identity, bool) {
	if u.codec == nil || sessionToken == "" {
		return domain.Identity{}, false
	}
	claims, err := u.codec.ParseAndVerify(sessionToken)
	if err != nil {
		return domain.Identity{}, false
	}
	return domain.Identity{Email: claims.Email, Name: claims.Name}, true
}

// mintSession issues the long-lived token. Only email and name carry over;
// code material never enters a session token.
func (u *AuthUsecase) mintSession(claims token.Claims) (string, domain.Identity, error) {
	session, err := u.codec.Mint(token.Claims{Email: claims.Email, Name: claims.Name}, sessionTTL)
	if err != nil {
		return "", domain.Identity{}, fmt.Errorf("mint session token: %w", err)
	}
	return session, domain.Identity{Email: claims.Email, Name: claims.Name}, nil
}

// NormalizeEmail trims surrounding whitespace and lower-cases the address.
func NormalizeEmail(addr string) string {
	return strings.ToLower(strings.TrimSpace(addr))
}

// generateCode samples a uniform 6-digit code, 000000 through 999999.
func generateCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(1_000_000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%06d", n.Int64()), nil
}

const verificationSubject = "Seu código de verificação - Capitão Animais"

func verificationBody(name, code, link string) string {
	greeting := "Olá!"
	if name != "" {
		greeting = "Olá, " + name + "!"
	}
	return fmt.Sprintf(`<div style="font-family:Arial,Helvetica,sans-serif;font-size:16px;color:#111">
  <p>%s</p>
  <p>Seu código de verificação é:</p>
  <p style="font-size:28px;letter-spacing:6px;font-weight:bold">%s</p>
  <p>Você também pode entrar diretamente clicando neste link:</p>
  <p><a href="%s">%s</a></p>
  <p>O código expira em 10 minutos.</p>
</div>`, greeting, code, link, link)
}
