package core

import (
	"errors"
	"net/http"
	"strings"

	"github.com/goliatone/go-accountsync/accessmask"
	goerrors "github.com/goliatone/go-errors"
)

var (
	ErrInvalidInput             = errors.New("core: invalid input")
	ErrNotAuthorized            = errors.New("core: caller is not authenticated")
	ErrForbidden                = errors.New("core: caller lacks the required capability")
	ErrAccountNotFound          = errors.New("core: account not found")
	ErrTrackerNotFound          = errors.New("core: tracker not found")
	ErrAccessKeyNotFound        = errors.New("core: access key not found")
	ErrAuthStateNotFound        = errors.New("core: authorization state not found")
	ErrTrackerAlreadyFinished   = errors.New("core: tracker already finished")
	ErrAccessKeyNameInUse       = errors.New("core: access key name already in use")
	ErrInconsistentUpdate       = errors.New("core: credential changed concurrently")
	ErrInvalidOrExpiredState    = errors.New("core: authorization state is invalid or expired")
	ErrAccountVanished          = errors.New("core: account no longer exists")
	ErrCharacterNotOnKey        = errors.New("core: character is not available on key")
	ErrUpstreamUnavailable      = errors.New("core: upstream authorization unavailable")
	ErrTokenExchangeFailed      = errors.New("core: token exchange failed")
	ErrIdentityResolutionFailed = errors.New("core: identity resolution failed")
)

const (
	ErrorBadInput                 = "ACCOUNTSYNC_BAD_INPUT"
	ErrorMalformedMask            = "ACCOUNTSYNC_MALFORMED_MASK"
	ErrorNotFound                 = "ACCOUNTSYNC_NOT_FOUND"
	ErrorUnauthorized             = "ACCOUNTSYNC_UNAUTHORIZED"
	ErrorForbidden                = "ACCOUNTSYNC_FORBIDDEN"
	ErrorInvalidState             = "ACCOUNTSYNC_INVALID_OR_EXPIRED_STATE"
	ErrorAccountVanished          = "ACCOUNTSYNC_ACCOUNT_VANISHED"
	ErrorCharacterNotOnKey        = "ACCOUNTSYNC_CHARACTER_NOT_ON_KEY"
	ErrorConflict                 = "ACCOUNTSYNC_CONFLICT"
	ErrorTrackerFinished          = "ACCOUNTSYNC_TRACKER_ALREADY_FINISHED"
	ErrorAccessKeyNameInUse       = "ACCOUNTSYNC_ACCESS_KEY_NAME_IN_USE"
	ErrorInconsistentUpdate       = "ACCOUNTSYNC_INCONSISTENT_UPDATE"
	ErrorUpstreamUnavailable      = "ACCOUNTSYNC_UPSTREAM_UNAVAILABLE"
	ErrorUpstreamThrottled        = "ACCOUNTSYNC_UPSTREAM_THROTTLED"
	ErrorTokenExchangeFailed      = "ACCOUNTSYNC_TOKEN_EXCHANGE_FAILED"
	ErrorIdentityResolutionFailed = "ACCOUNTSYNC_IDENTITY_RESOLUTION_FAILED"
	ErrorPersistenceFailure       = "ACCOUNTSYNC_PERSISTENCE_FAILURE"
	ErrorInternal                 = "ACCOUNTSYNC_INTERNAL_ERROR"
)

const (
	upstreamFailureMessage    = "The upstream service could not complete the request"
	persistenceFailureMessage = "An unexpected error occurred"
)

type errorRule struct {
	target   error
	category goerrors.Category
	textCode string
	// message replaces the error text for failures whose detail must
	// stay server side.
	message string
}

// Order matters: wrapped errors may match more than one target.
var errorRules = []errorRule{
	{target: ErrAccountVanished, category: goerrors.CategoryAuthz, textCode: ErrorAccountVanished},
	{target: ErrCharacterNotOnKey, category: goerrors.CategoryAuthz, textCode: ErrorCharacterNotOnKey},
	{target: ErrForbidden, category: goerrors.CategoryAuthz, textCode: ErrorForbidden},
	{target: ErrNotAuthorized, category: goerrors.CategoryAuth, textCode: ErrorUnauthorized},
	{target: ErrInvalidOrExpiredState, category: goerrors.CategoryAuth, textCode: ErrorInvalidState},
	{target: ErrUpstreamUnavailable, category: goerrors.CategoryExternal, textCode: ErrorUpstreamUnavailable, message: upstreamFailureMessage},
	{target: ErrTokenExchangeFailed, category: goerrors.CategoryExternal, textCode: ErrorTokenExchangeFailed, message: upstreamFailureMessage},
	{target: ErrIdentityResolutionFailed, category: goerrors.CategoryExternal, textCode: ErrorIdentityResolutionFailed, message: upstreamFailureMessage},
	{target: ErrTrackerAlreadyFinished, category: goerrors.CategoryConflict, textCode: ErrorTrackerFinished},
	{target: ErrAccessKeyNameInUse, category: goerrors.CategoryConflict, textCode: ErrorAccessKeyNameInUse},
	{target: ErrInconsistentUpdate, category: goerrors.CategoryConflict, textCode: ErrorInconsistentUpdate},
	{target: ErrAccountNotFound, category: goerrors.CategoryNotFound, textCode: ErrorNotFound},
	{target: ErrTrackerNotFound, category: goerrors.CategoryNotFound, textCode: ErrorNotFound},
	{target: ErrAccessKeyNotFound, category: goerrors.CategoryNotFound, textCode: ErrorNotFound},
	{target: ErrAuthStateNotFound, category: goerrors.CategoryNotFound, textCode: ErrorNotFound},
	{target: accessmask.ErrMalformedMask, category: goerrors.CategoryBadInput, textCode: ErrorMalformedMask},
	{target: ErrInvalidInput, category: goerrors.CategoryBadInput, textCode: ErrorBadInput},
}

func serviceErrorMapper(err error) *goerrors.Error {
	if err == nil {
		return nil
	}

	var richErr *goerrors.Error
	if goerrors.As(err, &richErr) {
		return ensureServiceErrorEnvelope(richErr)
	}

	for _, rule := range errorRules {
		if !errors.Is(err, rule.target) {
			continue
		}
		message := rule.message
		if message == "" {
			message = err.Error()
		}
		return ensureServiceErrorEnvelope(
			goerrors.Wrap(err, rule.category, message).
				WithTextCode(rule.textCode),
		)
	}

	// Anything unrecognized is treated as a persistence failure: the client
	// sees a generic message, the source stays attached for logging.
	mapped := goerrors.MapToError(err, goerrors.DefaultErrorMappers())
	if mapped.Category == goerrors.CategoryInternal {
		mapped.Message = persistenceFailureMessage
		mapped.TextCode = ErrorPersistenceFailure
		if mapped.Source == nil {
			mapped.Source = err
		}
	}
	return ensureServiceErrorEnvelope(mapped)
}

func newServiceError(message string, category goerrors.Category, textCode string) *goerrors.Error {
	return ensureServiceErrorEnvelope(
		goerrors.New(message, category).
			WithTextCode(textCode),
	)
}

func ensureServiceErrorEnvelope(err *goerrors.Error) *goerrors.Error {
	if err == nil {
		return nil
	}
	if err.Code == 0 {
		err.Code = serviceHTTPStatus(err.Category)
	}
	if strings.TrimSpace(err.TextCode) == "" {
		err.TextCode = defaultServiceTextCode(err.Category)
	}
	if err.Category == goerrors.CategoryInternal && strings.TrimSpace(err.Message) == "" {
		err.Message = persistenceFailureMessage
	}
	return err
}

func defaultServiceTextCode(category goerrors.Category) string {
	switch category {
	case goerrors.CategoryBadInput, goerrors.CategoryValidation:
		return ErrorBadInput
	case goerrors.CategoryNotFound:
		return ErrorNotFound
	case goerrors.CategoryAuth:
		return ErrorUnauthorized
	case goerrors.CategoryAuthz:
		return ErrorForbidden
	case goerrors.CategoryConflict:
		return ErrorConflict
	case goerrors.CategoryExternal:
		return ErrorUpstreamUnavailable
	case goerrors.CategoryRateLimit:
		return ErrorUpstreamThrottled
	default:
		return ErrorInternal
	}
}

func serviceHTTPStatus(category goerrors.Category) int {
	switch category {
	case goerrors.CategoryBadInput, goerrors.CategoryValidation:
		return http.StatusBadRequest
	case goerrors.CategoryNotFound:
		return http.StatusNotFound
	case goerrors.CategoryAuth:
		return http.StatusUnauthorized
	case goerrors.CategoryAuthz:
		return http.StatusForbidden
	case goerrors.CategoryConflict:
		return http.StatusConflict
	case goerrors.CategoryRateLimit:
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}
