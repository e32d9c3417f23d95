package http

import "github.com/gofiber/fiber/v2"

// errorBody is the wire shape of every item/request-level error: code is the stable
// string error_code, not an HTTP status.
type errorBody struct {
	Code    string `json:"code"`
	Title   string `json:"title"`
	Message string `json:"message"`
}

// OK writes a 200 response with body as the JSON payload.
func OK(c *fiber.Ctx, body any) error {
	return c.Status(fiber.StatusOK).JSON(body)
}

// Created writes a 201 response with body as the JSON payload.
func Created(c *fiber.Ctx, body any) error {
	return c.Status(fiber.StatusCreated).JSON(body)
}

// NoContent writes an empty 204 response.
func NoContent(c *fiber.Ctx) error {
	return c.SendStatus(fiber.StatusNoContent)
}

// NotFound writes a 404 response carrying the stable error code, title and message.
func NotFound(c *fiber.Ctx, code, title, message string) error {
	return c.Status(fiber.StatusNotFound).JSON(errorBody{Code: code, Title: title, Message: message})
}

// Conflict writes a 409 response carrying the stable error code, title and message.
func Conflict(c *fiber.Ctx, code, title, message string) error {
	return c.Status(fiber.StatusConflict).JSON(errorBody{Code: code, Title: title, Message: message})
}

// BadRequest writes a 400 response with body as the JSON payload.
func BadRequest(c *fiber.Ctx, body any) error {
	return c.Status(fiber.StatusBadRequest).JSON(body)
}

// UnprocessableEntity writes a 422 response carrying the stable error code, title and message.
func UnprocessableEntity(c *fiber.Ctx, code, title, message string) error {
	return c.Status(fiber.StatusUnprocessableEntity).JSON(errorBody{Code: code, Title: title, Message: message})
}

// Unauthorized writes a 401 response carrying the stable error code, title and message.
func Unauthorized(c *fiber.Ctx, code, title, message string) error {
	return c.Status(fiber.StatusUnauthorized).JSON(errorBody{Code: code, Title: title, Message: message})
}

// Forbidden writes a 403 response carrying the stable error code, title and message.
func Forbidden(c *fiber.Ctx, code, title, message string) error {
	return c.Status(fiber.StatusForbidden).JSON(errorBody{Code: code, Title: title, Message: message})
}

// InternalServerError writes a 500 response carrying the stable error code, title and message.
func InternalServerError(c *fiber.Ctx, code, title, message string) error {
	return c.Status(fiber.StatusInternalServerError).JSON(errorBody{Code: code, Title: title, Message: message})
}

// JSONResponseError writes rErr using the HTTP status already stored on it.
func JSONResponseError(c *fiber.Ctx, rErr ResponseError) error {
	status := rErr.Code
	if status < 100 || status > 599 {
		status = fiber.StatusInternalServerError
	}

	return c.Status(status).JSON(rErr)
}
