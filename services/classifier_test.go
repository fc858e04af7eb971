package services

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"research-hub/models"
)

func TestClassifyAffiliation(t *testing.T) {
	cases := []struct {
		name string
		text string
		want string
	}{
		{"hessian.ai any case", "Funded by HESSIAN.AI and friends", models.AffiliationVerified},
		{"hessian ai with space", "the hessian ai center", models.AffiliationVerified},
		{"tu darmstadt", "Computer Science, TU Darmstadt, Germany", models.AffiliationProbable},
		{"full german name", "Technische Universität Darmstadt", models.AffiliationProbable},
		{"full english name", "Technical University Darmstadt", models.AffiliationProbable},
		{"mail domain", "jane.doe@tu-darmstadt.de", models.AffiliationProbable},
		{"verified wins over probable", "hessian.ai and TU Darmstadt", models.AffiliationVerified},
		{"no signal", "University of Elsewhere", models.AffiliationUnlikely},
		{"empty text", "", models.AffiliationUnchecked},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, ClassifyAffiliation(tc.text))
		})
	}
}
