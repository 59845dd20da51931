package crew_test

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/rpggio/fleetd/internal/domain/crew"
	"github.com/rpggio/fleetd/internal/validation"
	"github.com/stretchr/testify/require"
)

func TestDate_JSON(t *testing.T) {
	c := crew.Crew{ID: "c1", Name: "Alpha", StartDate: crew.NewDate(2021, time.March, 9)}

	data, err := json.Marshal(c)
	require.NoError(t, err)
	require.Contains(t, string(data), `"startDate":"03/09/2021"`)

	var back crew.Crew
	require.NoError(t, json.Unmarshal(data, &back))
	require.True(t, back.StartDate.Equal(c.StartDate.Time))
}

func TestDate_OmittedWhenZero(t *testing.T) {
	data, err := json.Marshal(crew.Crew{ID: "c1"})
	require.NoError(t, err)
	require.NotContains(t, string(data), "startDate")
}

func TestDate_RejectsOtherLayouts(t *testing.T) {
	var c crew.Crew
	err := json.Unmarshal([]byte(`{"startDate":"2021-03-09"}`), &c)
	require.ErrorIs(t, err, validation.ErrInvalid)

	require.NoError(t, json.Unmarshal([]byte(`{"startDate":null}`), &c))
	require.True(t, c.StartDate.IsZero())
}
