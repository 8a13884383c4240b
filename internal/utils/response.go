package utils

import "github.com/gofiber/fiber/v2"

// APIResponse describes the common structure for API responses.
type APIResponse struct {
	Success bool                   `json:"success"`
	Data    interface{}            `json:"data,omitempty"`
	Message string                 `json:"message"`
	Meta    map[string]interface{} `json:"meta,omitempty"`
	Details interface{}            `json:"details,omitempty"`
}

// SendSuccess sends a successful JSON response with a message.
func SendSuccess(c *fiber.Ctx, message string, data interface{}) error {
	return SendSuccessWithStatus(c, fiber.StatusOK, message, data)
}

// SendSuccessWithStatus sends a success payload using the provided HTTP status code.
func SendSuccessWithStatus(c *fiber.Ctx, status int, message string, data interface{}) error {
	return send(c, status, APIResponse{Success: true, Data: data, Message: message})
}

// SendSuccessWithMeta sends a 200 payload carrying auxiliary metadata such as pagination or cache state.
func SendSuccessWithMeta(c *fiber.Ctx, message string, data interface{}, meta map[string]interface{}) error {
	return send(c, fiber.StatusOK, APIResponse{Success: true, Data: data, Message: message, Meta: meta})
}

// SendError sends an error JSON response with the given status code.
func SendError(c *fiber.Ctx, status int, message string) error {
	return send(c, status, APIResponse{Message: message})
}

// SendErrorWithDetails sends an error response with structured details, typically field validation failures.
func SendErrorWithDetails(c *fiber.Ctx, status int, message string, details interface{}) error {
	return send(c, status, APIResponse{Message: message, Details: details})
}

func send(c *fiber.Ctx, status int, payload APIResponse) error {
	if status == 0 {
		status = fiber.StatusOK
	}
	if payload.Message == "" {
		if payload.Success {
			payload.Message = "success"
		} else {
			payload.Message = "error"
		}
	}
	return c.Status(status).JSON(payload)
}
