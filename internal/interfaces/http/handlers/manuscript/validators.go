package manuscript

import (
	"strings"
	"sync"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	vo "github.com/openpublisher/openpublisher/internal/domain/manuscript/valueobjects"
	"github.com/openpublisher/openpublisher/internal/shared/utils"
)

var registerOnce sync.Once

// RegisterValidators installs the request tags used by this package on
// gin's binding validator.
func RegisterValidators() {
	registerOnce.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			return
		}
		utils.UseJSONFieldNames(v)
		_ = v.RegisterValidation("notblank", notBlank)
		_ = v.RegisterValidation("manuscript_status", validManuscriptStatus)
		_ = v.RegisterValidation("recommendation", validRecommendation)
	})
}

func notBlank(fl validator.FieldLevel) bool {
	return strings.TrimSpace(fl.Field().String()) != ""
}

func validManuscriptStatus(fl validator.FieldLevel) bool {
	return vo.ManuscriptStatus(strings.ToUpper(strings.TrimSpace(fl.Field().String()))).IsValid()
}

func validRecommendation(fl validator.FieldLevel) bool {
	return vo.Recommendation(strings.ToLower(strings.TrimSpace(fl.Field().String()))).IsValid()
}
