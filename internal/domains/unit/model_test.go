package unit

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func i64(v int64) *int64 { return &v }

func TestAggregateMean(t *testing.T) {
	tests := []struct {
		name  string
		sum   int64
		count int64
		want  *int64
	}{
		{"no offers", 0, 0, nil},
		{"negative count is treated as empty", -1, -1, nil},
		{"exact division", 200, 2, i64(100)},
		{"floors the remainder", 7, 2, i64(3)},
		{"floors large sums", 222996, 4, i64(55749)},
		{"single offer", 79999, 1, i64(79999)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := Aggregate{Sum: tt.sum, Count: tt.count}
			got := a.Mean()
			if tt.want == nil {
				assert.Nil(t, got)
				return
			}
			require.NotNil(t, got)
			assert.Equal(t, *tt.want, *got)
		})
	}
}

func TestUnitType(t *testing.T) {
	offer := Unit{IsCategory: false}
	category := Unit{IsCategory: true}

	assert.Equal(t, TypeOffer, offer.Type())
	assert.Equal(t, TypeCategory, category.Type())
}
