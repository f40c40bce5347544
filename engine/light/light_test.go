package light

import (
	"testing"

	"github.com/Carmen-Shannon/perspective/common"
	"github.com/stretchr/testify/assert"
)

func TestUniformLayouts(t *testing.T) {
	s := NewState(WithPointPosition(1, 2, 3))

	p := s.PointUniform()
	assert.Equal(t, 48, p.Size())
	buf := p.Marshal()
	assert.Equal(t, float32(2), common.Float32At(buf, 4))
	assert.Equal(t, float32(0.35), common.Float32At(buf, 20))

	a := s.AmbientUniform()
	assert.Equal(t, 48, a.Size())
	buf = a.Marshal()
	assert.Equal(t, float32(-1), common.Float32At(buf, 4))
	assert.Equal(t, float32(0.075), common.Float32At(buf, 40))
}
