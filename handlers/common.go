package handlers

import (
	"errors"
	"io"
	"reflect"
	"strconv"
	"strings"

	"photostore/apierr"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

const (
	defaultPageLimit = 20
	maxPageLimit     = 100

	invalidLimitMessage  = "Invalid limit parameter. Must be a number between 1 and 100."
	invalidOffsetMessage = "Invalid offset parameter. Must be a non-negative number."
)

type MessageResponse struct {
	Message string `json:"message"`
}

type Pagination struct {
	Total  int64 `json:"total"`
	Limit  int   `json:"limit"`
	Offset int   `json:"offset"`
}

func init() {
	// Report JSON field names in validation messages
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		v.RegisterTagNameFunc(func(field reflect.StructField) string {
			name, _, _ := strings.Cut(field.Tag.Get("json"), ",")
			if name == "-" {
				return ""
			}
			if name == "" {
				name, _, _ = strings.Cut(field.Tag.Get("form"), ",")
			}
			return name
		})
	}
}

func validate() *validator.Validate {
	return binding.Validator.Engine().(*validator.Validate)
}

// parsePagination reads ?limit=&offset=, empty values fall back to the defaults
func parsePagination(c *gin.Context) (p Pagination, err error) {
	p.Limit, err = queryInt(c, "limit", defaultPageLimit)
	if err != nil || validate().Var(p.Limit, "min=1,max="+strconv.Itoa(maxPageLimit)) != nil {
		return p, apierr.Validation(invalidLimitMessage)
	}
	p.Offset, err = queryInt(c, "offset", 0)
	if err != nil || validate().Var(p.Offset, "min=0") != nil {
		return p, apierr.Validation(invalidOffsetMessage)
	}
	return p, nil
}

func queryInt(c *gin.Context, name string, def int) (int, error) {
	v := strings.TrimSpace(c.Query(name))
	if v == "" {
		return def, nil
	}
	return strconv.Atoi(v)
}

// bindJSON binds the request body; an empty body leaves obj untouched when allowEmpty is set
func bindJSON(c *gin.Context, obj any, allowEmpty bool) error {
	err := c.ShouldBindJSON(obj)
	if err == nil {
		return nil
	}
	if errors.Is(err, io.EOF) {
		if !allowEmpty {
			return apierr.Validation("Request body is required")
		}
		if err = validate().Struct(obj); err == nil {
			return nil
		}
	}
	return bindingError(err)
}

// bindingError turns gin/validator failures into a Validation error naming the first bad field
func bindingError(err error) error {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		fe := verrs[0]
		if fe.Tag() == "required" {
			return apierr.Validation(fe.Field() + " is required")
		}
		return apierr.Validation("Invalid " + fe.Field())
	}
	return apierr.Validation("Invalid request body")
}

// paramUUID parses a path parameter; message is returned as a Validation error on failure
func paramUUID(c *gin.Context, name, message string) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		return uuid.Nil, apierr.Validation(message)
	}
	return id, nil
}
