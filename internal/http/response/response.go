// Package response единый JSON-конверт ответов веб-оболочки.
package response

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/go-chi/render"
	"github.com/go-playground/validator"
)

// Response конверт ответа: Status "OK" с Data или "Error" с Error.
type Response struct {
	Status string `json:"status"`
	Error  string `json:"error,omitempty"`
	Data   any    `json:"data,omitempty"`
}

// RedirectData тело ответа с перенаправлением.
type RedirectData struct {
	Redirect string `json:"redirect"`
}

const (
	StatusOK    = "OK"
	StatusError = "Error"
)

// OK успешный ответ.
func OK(data any) Response {
	return Response{
		Status: StatusOK,
		Data:   data,
	}
}

// Error ответ с текстом ошибки.
func Error(msg string) Response {
	return Response{
		Status: StatusError,
		Error:  msg,
	}
}

var validationMessages = map[string]string{
	"required": "field %s is a required field",
	"email":    "field %s must be a valid email",
	"numeric":  "field %s can contain only numbers",
}

// ValidationError собирает нарушения валидации в одну строку через запятую.
func ValidationError(errs validator.ValidationErrors) Response {
	msgs := make([]string, 0, len(errs))
	for _, fe := range errs {
		format, ok := validationMessages[fe.ActualTag()]
		if !ok {
			format = "field %s is not a valid"
		}
		msgs = append(msgs, fmt.Sprintf(format, fe.Field()))
	}
	return Error(strings.Join(msgs, ", "))
}

// Redirect отвечает 303 See Other с Location и телом {"redirect": target}.
func Redirect(w http.ResponseWriter, r *http.Request, target string) {
	w.Header().Set("Location", target)
	render.Status(r, http.StatusSeeOther)
	render.JSON(w, r, OK(RedirectData{Redirect: target}))
}
