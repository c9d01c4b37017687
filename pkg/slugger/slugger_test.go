package slugger_test

import (
	"testing"

	"career-catalog-backend/pkg/slugger"

	"github.com/stretchr/testify/assert"
)

func TestMake(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"simple title", "Data Scientist", "data-scientist"},
		{"surrounding spaces", "  Software Engineer  ", "software-engineer"},
		{"repeated separators", "Civil   Engineer -- Roads", "civil-engineer-roads"},
		{"underscores", "quantity_surveyor", "quantity-surveyor"},
		{"mixed case", "ICT Technician", "ict-technician"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, slugger.Make(tt.in))
		})
	}
}

func TestMakeIsDeterministic(t *testing.T) {
	assert.Equal(t, slugger.Make("Actuarial Scientist"), slugger.Make("Actuarial Scientist"))
}
