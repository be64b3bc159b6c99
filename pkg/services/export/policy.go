package export

import (
	"github.com/de-tools/hub-export/pkg/models/domain"
)

// DefaultShapePolicy is the column shaping applied to every weekly batch:
// five empty columns the caseworkers fill in by hand, a scratch column the
// form wizard leaves behind, and bookkeeping columns moved to the far right.
func DefaultShapePolicy() domain.ShapePolicy {
	return domain.ShapePolicy{
		Add: []domain.AddColumn{
			{Name: "aendret_beloeb_i_alt"},
			{Name: "godkendt"},
			{Name: "godkendt_af"},
			{Name: "behandlet_ok"},
			{Name: "behandlet_fejl"},
		},
		Remove:   []string{"koerselsliste_tomme_felter_tjek_"},
		Trailing: []string{"test", "attachments", "uuid"},
	}
}
