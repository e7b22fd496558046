package persist

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"actval/internal/diary"
)

func writeDiaryTable(t *testing.T, lines ...string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "diaries.csv")
	require.NoError(t, os.WriteFile(path, []byte(strings.Join(lines, "\n")+"\n"), 0o644))
	return path
}

func TestLoadDiaryTable(t *testing.T) {
	ctx := context.Background()

	t.Run("parses records with household fields", func(t *testing.T) {
		path := writeDiaryTable(t,
			"country,household,person,diary,household_size,sex,work_status,day_type,hh income,sleep1,sleep2,work1,eat1",
			"DE,h1,p1,d1,2,female,full time,working day,high,sleep,sleep,work,eat",
			"DE,h1,p2,d1,2,male,part time,rest day,high,sleep,work,work,sleep",
		)

		records, err := LoadDiaryTable(ctx, path, diary.Resolution(360), nil)
		require.NoError(t, err)
		require.Len(t, records, 2)

		r := records[0]
		assert.Equal(t, diary.Key{Country: "DE", Household: "h1", Person: "p1", Diary: "d1"}, r.Key)
		assert.Equal(t, 2, r.DeclaredHouseholdSize)
		assert.Equal(t, map[string]string{"income": "high"}, r.HouseholdFields)
		assert.Equal(t, diary.SexFemale, r.Sex)
		assert.Equal(t, diary.WorkFullTime, r.WorkStatus)
		assert.Equal(t, diary.DayWork, r.DayType)
		assert.Equal(t, []string{"sleep", "sleep", "work", "eat"}, r.Activities)
		assert.True(t, r.IsValid(diary.Resolution(360)))
	})

	t.Run("no household field columns", func(t *testing.T) {
		path := writeDiaryTable(t,
			"country,household,person,diary,household_size,sex,work_status,day_type,a,b,c,d",
			"DE,h1,p1,d1,1,female,full time,working day,sleep,sleep,work,eat",
		)
		records, err := LoadDiaryTable(ctx, path, diary.Resolution(360), nil)
		require.NoError(t, err)
		require.Len(t, records, 1)
		assert.Empty(t, records[0].HouseholdFields)
		assert.Len(t, records[0].Activities, 4)
	})

	t.Run("slot count must match the resolution", func(t *testing.T) {
		path := writeDiaryTable(t,
			"country,household,person,diary,household_size,sex,work_status,day_type,a,b,c,d",
			"DE,h1,p1,d1,1,female,full time,working day,sleep,sleep,work,eat",
		)
		_, err := LoadDiaryTable(ctx, path, diary.Resolution10, nil)
		assert.Error(t, err)
	})

	t.Run("unexpected header order is rejected", func(t *testing.T) {
		path := writeDiaryTable(t,
			"household,country,person,diary,household_size,sex,work_status,day_type,a,b,c,d",
			"h1,DE,p1,d1,1,female,full time,working day,sleep,sleep,work,eat",
		)
		_, err := LoadDiaryTable(ctx, path, diary.Resolution(360), nil)
		assert.Error(t, err)
	})

	t.Run("non-numeric household size is rejected", func(t *testing.T) {
		path := writeDiaryTable(t,
			"country,household,person,diary,household_size,sex,work_status,day_type,a,b,c,d",
			"DE,h1,p1,d1,two,female,full time,working day,sleep,sleep,work,eat",
		)
		_, err := LoadDiaryTable(ctx, path, diary.Resolution(360), nil)
		assert.Error(t, err)
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := LoadDiaryTable(ctx, filepath.Join(t.TempDir(), "nope.csv"), diary.Resolution(360), nil)
		assert.Error(t, err)
	})
}
