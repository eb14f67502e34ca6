package yamdb

import (
	"context"
	"errors"

	"github.com/goccy/go-json"
	"github.com/gofiber/fiber/v2"
	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-print"
	"github.com/google/uuid"

	"github.com/goliatone/go-yamdb/middleware/jwtware"
)

// NewFiberApp returns a fiber app using the JSON codec and error handler
// shared by every route.
func NewFiberApp(logger Logger) *fiber.App {
	return fiber.New(fiber.Config{
		AppName:      "yamdb",
		JSONEncoder:  json.Marshal,
		JSONDecoder:  json.Unmarshal,
		ErrorHandler: NewErrorHandler(logger),
	})
}

// NewErrorHandler renders core errors as JSON. Field errors are rendered as
// {"field": ["message"]}, anything else as {"detail": "message"}.
func NewErrorHandler(logger Logger) fiber.ErrorHandler {
	if logger == nil {
		logger = defLogger{}
	}

	return func(c *fiber.Ctx, err error) error {
		var fiberErr *fiber.Error
		if errors.As(err, &fiberErr) {
			return c.Status(fiberErr.Code).JSON(fiber.Map{"detail": fiberErr.Message})
		}

		var richErr *goerrors.Error
		if !goerrors.As(err, &richErr) {
			richErr = goerrors.Wrap(err, goerrors.CategoryInternal, "An unexpected server error occurred").
				WithCode(goerrors.CodeInternal)
		}

		status := richErr.Code
		if status == 0 {
			status = fiber.StatusInternalServerError
		}

		if status >= fiber.StatusInternalServerError {
			logger.Error("request failed",
				"path", c.OriginalURL(),
				"error", err,
				"details", print.MaybePrettyJSON(richErr.Metadata),
			)
		} else {
			logger.Debug("request rejected",
				"path", c.OriginalURL(),
				"text_code", richErr.TextCode,
				"details", print.MaybePrettyJSON(richErr.Metadata),
			)
		}

		if fields := ErrorFields(richErr); len(fields) > 0 {
			body := fiber.Map{}
			for field, msg := range fields {
				body[field] = []string{msg}
			}
			return c.Status(status).JSON(body)
		}

		message := richErr.Message
		if status >= fiber.StatusInternalServerError {
			message = "internal server error"
		}

		return c.Status(status).JSON(fiber.Map{"detail": message})
	}
}

// RouteAuthenticator turns bearer tokens into request actors.
type RouteAuthenticator struct {
	cfg    Config
	tokens TokenService
	users  Users
	Logger Logger
}

// NewHTTPAuthenticator returns a route authenticator.
func NewHTTPAuthenticator(tokens TokenService, users Users, cfg Config) *RouteAuthenticator {
	return &RouteAuthenticator{
		cfg:    cfg,
		tokens: tokens,
		users:  users,
		Logger: defLogger{},
	}
}

// ProtectedRoute requires a valid token.
func (a *RouteAuthenticator) ProtectedRoute() fiber.Handler {
	return a.middleware(false)
}

// OptionalRoute accepts anonymous requests but rejects invalid tokens.
func (a *RouteAuthenticator) OptionalRoute() fiber.Handler {
	return a.middleware(true)
}

func (a *RouteAuthenticator) middleware(optional bool) fiber.Handler {
	return jwtware.New(jwtware.Config{
		Optional:       optional,
		TokenValidator: tokenValidatorAdapter{a.tokens},
		ContextKey:     a.cfg.GetContextKey(),
		TokenLookup:    a.cfg.GetTokenLookup(),
		AuthScheme:     a.cfg.GetAuthScheme(),
		ErrorHandler:   a.authErrHandler,
		ValidationListeners: []jwtware.ValidationListener{
			a.loadActor,
		},
		ContextEnricher: ContextEnricherAdapter,
	})
}

// loadActor resolves the token subject to the stored user, so role changes
// apply to tokens issued before them.
func (a *RouteAuthenticator) loadActor(c *fiber.Ctx, claims jwtware.AuthClaims) error {
	id, err := uuid.Parse(claims.UserID())
	if err != nil {
		return ErrTokenMalformed
	}

	user, err := a.users.GetByID(c.UserContext(), id)
	if err != nil {
		if IsNotFound(err) {
			return ErrTokenMalformed
		}
		return err
	}

	c.SetUserContext(WithActor(c.UserContext(), ActorFromUser(user)))
	return nil
}

func (a *RouteAuthenticator) authErrHandler(c *fiber.Ctx, err error) error {
	var richErr *goerrors.Error
	switch {
	case IsTokenExpiredError(err):
		richErr = ErrTokenExpired
	case errors.Is(err, jwtware.ErrJWTMissingOrMalformed):
		richErr = ErrAuthenticationRequired
	case goerrors.As(err, &richErr):
	default:
		richErr = goerrors.Wrap(err, goerrors.CategoryAuth, "invalid authentication token").
			WithCode(goerrors.CodeUnauthorized).
			WithTextCode(TextCodeTokenInvalid)
	}

	a.Logger.Info("authentication rejected", "path", c.OriginalURL(), "text_code", richErr.TextCode)
	return richErr
}

type tokenValidatorAdapter struct {
	tokens TokenService
}

func (a tokenValidatorAdapter) Validate(token string) (jwtware.AuthClaims, error) {
	claims, err := a.tokens.Validate(token)
	if err != nil {
		return nil, err
	}
	return claims, nil
}

// ContextEnricherAdapter stores validated claims in the request context.
func ContextEnricherAdapter(c context.Context, claims jwtware.AuthClaims) context.Context {
	authClaims, ok := claims.(AuthClaims)
	if !ok {
		return c
	}
	return WithClaimsContext(c, authClaims)
}

// actorFrom returns the request actor, nil for anonymous requests.
func actorFrom(c *fiber.Ctx) *Actor {
	actor, _ := ActorFromContext(c.UserContext())
	return actor
}
