package api

import (
	"errors"
	"net/http"

	"alcyxob/gym-saas/internal/domain"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

// RegisterValidators adds the custom binding tags used by request structs:
// "gymcode" for gym code prefixes and "role" for profile roles.
func RegisterValidators() error {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return errors.New("gin validator engine is not go-playground/validator")
	}
	if err := v.RegisterValidation("gymcode", func(fl validator.FieldLevel) bool {
		return domain.IsGymCodePrefix(fl.Field().String())
	}); err != nil {
		return err
	}
	return v.RegisterValidation("role", func(fl validator.FieldLevel) bool {
		return domain.Role(fl.Field().String()).Valid()
	})
}

// abortWithBindError answers 400 for a request that failed to bind. Field
// validation failures are listed by field and failing tag.
func abortWithBindError(c *gin.Context, err error) {
	var ve validator.ValidationErrors
	if !errors.As(err, &ve) {
		abortWithError(c, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}
	fields := make(map[string]string, len(ve))
	for _, fe := range ve {
		fields[fe.Field()] = fe.Tag()
	}
	c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{
		"error":  "Validation error",
		"fields": fields,
	})
}
