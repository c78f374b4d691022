package simulation

import (
	"testing"

	"github.com/gogpu/graphforce/internal/shaderutil"
)

func TestSharedShadersValidate(t *testing.T) {
	for name, src := range map[string]string{
		"clear_forces": shaderClearForces,
		"springs":      shaderSprings,
		"integrate":    shaderIntegrate,
	} {
		if err := shaderutil.Validate(src); err != nil {
			t.Errorf("%s failed validation: %v", name, err)
		}
	}
}
