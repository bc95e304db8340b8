package handlers

import (
	"errors"
	"fmt"
	"log"

	"outfitter/internal/apperr"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

var statusByKind = map[apperr.Kind]int{
	apperr.Unauthenticated:   fiber.StatusUnauthorized,
	apperr.InvalidCredential: fiber.StatusUnauthorized,
	apperr.Forbidden:         fiber.StatusForbidden,
	apperr.InvalidInput:      fiber.StatusBadRequest,
	apperr.ProductNotFound:   fiber.StatusNotFound,
	apperr.NotFound:          fiber.StatusNotFound,
	apperr.AlreadyInWishlist: fiber.StatusConflict,
	apperr.Conflict:          fiber.StatusConflict,
	apperr.InvalidReorder:    fiber.StatusUnprocessableEntity,
	apperr.StoreTimeout:      fiber.StatusServiceUnavailable,
	apperr.AggregationFailed: fiber.StatusServiceUnavailable,
	apperr.Internal:          fiber.StatusInternalServerError,
}

// StatusOf maps an error kind to its HTTP status.
func StatusOf(kind apperr.Kind) int {
	if status, ok := statusByKind[kind]; ok {
		return status
	}
	return fiber.StatusInternalServerError
}

// errorBody is the JSON shape of every failed request.
func errorBody(err error) fiber.Map {
	kind := apperr.KindOf(err)
	return fiber.Map{
		"message":   apperr.MessageOf(err),
		"kind":      kind.String(),
		"retryable": apperr.Retryable(kind),
	}
}

// fail writes err as a JSON error response. Server-side failures are logged with the
// operation and user; client errors are not.
func fail(c *fiber.Ctx, op, userID string, err error) error {
	status := StatusOf(apperr.KindOf(err))
	if status >= fiber.StatusInternalServerError {
		log.Printf("%s failed for user %q: %v", op, userID, err)
	}
	return c.Status(status).JSON(errorBody(err))
}

// validationFailed lists every field that failed validation with its tag.
func validationFailed(c *fiber.Ctx, err error) error {
	errorMessages := make(map[string]string)
	if validationErrors, ok := err.(validator.ValidationErrors); ok {
		for _, e := range validationErrors {
			errorMessages[e.Field()] = fmt.Sprintf("Field '%s' failed on the '%s' tag", e.Field(), e.Tag())
		}
	}
	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
		"message":   "Validation failed",
		"kind":      apperr.InvalidInput.String(),
		"retryable": false,
		"errors":    errorMessages,
	})
}

// parseBody decodes and validates the request body into dst. It writes the error response
// itself and reports whether the handler may continue.
func parseBody(c *fiber.Ctx, validate *validator.Validate, dst any) (bool, error) {
	if err := c.BodyParser(dst); err != nil {
		return false, c.Status(fiber.StatusBadRequest).JSON(errorBody(apperr.New(apperr.InvalidInput, "Invalid request body")))
	}
	if err := validate.Struct(dst); err != nil {
		return false, validationFailed(c, err)
	}
	return true, nil
}

// ErrorHandler renders errors that escape a handler, including fiber's own routing errors,
// in the same JSON shape.
func ErrorHandler(c *fiber.Ctx, err error) error {
	var fe *fiber.Error
	if errors.As(err, &fe) {
		kind := apperr.Internal
		switch fe.Code {
		case fiber.StatusNotFound:
			kind = apperr.NotFound
		case fiber.StatusBadRequest, fiber.StatusMethodNotAllowed, fiber.StatusRequestEntityTooLarge:
			kind = apperr.InvalidInput
		}
		return c.Status(fe.Code).JSON(fiber.Map{
			"message":   fe.Message,
			"kind":      kind.String(),
			"retryable": false,
		})
	}
	return fail(c, c.Method()+" "+c.Path(), "", err)
}
