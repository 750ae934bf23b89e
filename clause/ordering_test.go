package clause

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func Test_ParseDirection(t *testing.T) {
	tests := []struct {
		in      string
		want    Direction
		wantErr bool
	}{
		{"asc", DirectionASC, false},
		{" DESC ", DirectionDESC, false},
		{"Asc", DirectionASC, false},
		{"up", "", true},
		{"", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseDirection(tt.in)
			if tt.wantErr {
				require.EqualError(t, err, "invalid ordering direction '"+tt.in+"'")
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func Test_Direction_Flip_And_ForOperator(t *testing.T) {
	tests := []struct {
		name     string
		in       Direction
		flipped  Direction
		operator Operator
	}{
		{"ASC maps to GT", DirectionASC, DirectionDESC, OperatorGT},
		{"DESC maps to LT", DirectionDESC, DirectionASC, OperatorLT},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.True(t, tt.in.Valid())
			assert.Equal(t, tt.flipped, tt.in.Flip())
			assert.Equal(t, tt.operator, tt.in.ForOperator())
			assert.Equal(t, tt.in, tt.in.ForOperator().ForOrdering())
		})
	}

	assert.Panics(t, func() { Direction("sideways").ForOperator() })
}

func Test_Operator_Valid_And_ForOrdering(t *testing.T) {
	tests := []struct {
		name     string
		in       Operator
		valid    bool
		flipped  Operator
		ordering Direction
		panicExp bool
	}{
		{"GT valid maps to ASC", OperatorGT, true, OperatorLT, DirectionASC, false},
		{"LT valid maps to DESC", OperatorLT, true, OperatorGT, DirectionDESC, false},
		{"EQ valid has no ordering", OperatorEQ, true, OperatorEQ, "", true},
		{"LIKE invalid", Operator("like"), false, Operator("like"), "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.valid, tt.in.Valid())
			assert.Equal(t, tt.flipped, tt.in.Flip())
			if tt.panicExp {
				assert.Panics(t, func() { tt.in.ForOrdering() })
				return
			}
			assert.Equal(t, tt.ordering, tt.in.ForOrdering())
		})
	}
}
