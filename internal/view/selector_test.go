package view

import (
	"testing"

	"github.com/rpggio/fleetd/internal/docstore"
	"github.com/stretchr/testify/require"
)

func TestResolveSelector_Precedence(t *testing.T) {
	tests := []struct {
		name     string
		ids      []string
		parentID string
		tenantID string
		want     SelectorKind
	}{
		{name: "ids beat parent and tenant", ids: []string{"c1"}, parentID: "f1", tenantID: "t1", want: SelectByIDs},
		{name: "empty non-nil ids still win", ids: []string{}, parentID: "f1", tenantID: "t1", want: SelectByIDs},
		{name: "parent beats tenant", parentID: "f1", tenantID: "t1", want: SelectByParent},
		{name: "tenant fallback", tenantID: "t1", want: SelectByTenant},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sel, err := ResolveSelector(tt.ids, tt.parentID, tt.tenantID)
			require.NoError(t, err)
			require.Equal(t, tt.want, sel.Kind())
		})
	}

	_, err := ResolveSelector(nil, "", "")
	require.ErrorIs(t, err, ErrNoSelector)
}

func TestSelector_FilterIgnoresTenantForIDs(t *testing.T) {
	sel, err := ResolveSelector([]string{"c1", "c2"}, "", "t1")
	require.NoError(t, err)

	f, err := sel.filter(parentField)
	require.NoError(t, err)
	require.Equal(t, docstore.Filter{docstore.In("id", []string{"c1", "c2"})}, f)

	f, err = ByParent("f1").filter(parentField)
	require.NoError(t, err)
	require.Equal(t, docstore.Filter{docstore.Eq("fleetId", "f1")}, f)

	_, err = Selector{}.filter(parentField)
	require.ErrorIs(t, err, ErrNoSelector)
}

func TestPage_Validate(t *testing.T) {
	require.NoError(t, Page{Offset: 0, Limit: 1}.Validate())
	require.ErrorIs(t, Page{Offset: -1, Limit: 1}.Validate(), ErrInvalidPage)
	require.ErrorIs(t, Page{Offset: 0, Limit: 0}.Validate(), ErrInvalidPage)
}

func TestPipelines_StageOrder(t *testing.T) {
	p := personnelPipeline(docstore.Filter{docstore.Eq("organizationId", "t1")}, Page{Offset: 5, Limit: 10})

	require.IsType(t, docstore.Match{}, p[0])
	require.IsType(t, docstore.Project{}, p[len(p)-3])
	require.Equal(t, docstore.Skip{N: 5}, p[len(p)-2])
	require.Equal(t, docstore.Limit{N: 10}, p[len(p)-1])
	for _, st := range p[1 : len(p)-3] {
		switch st.(type) {
		case docstore.Lookup, docstore.Unwind:
		default:
			t.Fatalf("unexpected stage %T inside lookup chain", st)
		}
	}
}
