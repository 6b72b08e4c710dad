package middleware

import "github.com/labstack/echo/v4"

type ErrorBody struct {
	Message string `json:"message"`
}

// Envelope wraps every API response.
type Envelope struct {
	OK    bool       `json:"ok"`
	Data  any        `json:"data,omitempty"`
	Error *ErrorBody `json:"error,omitempty"`
}

func OK(c echo.Context, status int, data any) error {
	return c.JSON(status, Envelope{OK: true, Data: data})
}

func Fail(c echo.Context, status int, message string) error {
	return c.JSON(status, Envelope{OK: false, Error: &ErrorBody{Message: message}})
}
