package importer

import (
	"strings"
	"testing"
	"time"

	"github.com/Victor-talka/talka-history/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func readRows(t *testing.T, body string) [][]string {
	t.Helper()
	records, err := ReadCSV(strings.NewReader(body))
	require.NoError(t, err)
	return records.Rows
}

func TestGroupRowsScenarios(t *testing.T) {
	body := `"timestamp","phone","message","from_me"
"01/03/2024, 14:30","+551199999999","Olha essa foto.jpg","false"
"2024-03-01 14:30:00","+551199999999","confira este video: http://x.co/v","1"
`
	result := GroupRows(readRows(t, body), zap.NewNop())

	assert.Equal(t, 2, result.RowsTotal)
	assert.Zero(t, result.RowsSkipped)
	require.Len(t, result.Groups, 1)

	group := result.Groups[0]
	assert.Equal(t, "+551199999999", group.PhoneNumber)
	require.Len(t, group.Messages, 2)

	photo := group.Messages[0]
	assert.Equal(t, "Olha essa foto.jpg", photo.Content)
	assert.Equal(t, models.MessageTypeImage, photo.MessageType)
	require.NotNil(t, photo.MediaFilename)
	assert.Equal(t, "foto.jpg", *photo.MediaFilename)
	assert.False(t, photo.FromMe)

	video := group.Messages[1]
	assert.Equal(t, models.MessageTypeVideo, video.MessageType)
	require.NotNil(t, video.MediaURL)
	assert.Equal(t, "http://x.co/v", *video.MediaURL)
	assert.Nil(t, video.MediaFilename)
	assert.True(t, video.FromMe)
}

func TestGroupRowsKeepsOrderPerPhone(t *testing.T) {
	rows := [][]string{
		{"timestamp", "phone", "message"},
		{"01/03/2024 10:00", "+552", "b1"},
		{"01/03/2024 09:00", "+551", "a1"},
		{"01/03/2024 11:00", "+552", "b2"},
		{"01/03/2024 08:00", "+551", "a2"},
	}

	result := GroupRows(rows, zap.NewNop())
	require.Len(t, result.Groups, 2)

	assert.Equal(t, "+552", result.Groups[0].PhoneNumber)
	assert.Equal(t, "+551", result.Groups[1].PhoneNumber)
	assert.Equal(t, []string{"b1", "b2"}, contents(result.Groups[0]))
	assert.Equal(t, []string{"a1", "a2"}, contents(result.Groups[1]))

	assert.Equal(t, time.Date(2024, 3, 1, 11, 0, 0, 0, time.UTC), result.Groups[0].LatestTimestamp())
	assert.Equal(t, time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC), result.Groups[1].LatestTimestamp())
	assert.Equal(t, 4, result.MessageCount())
}

func TestGroupRowsSkipsBadRows(t *testing.T) {
	rows := [][]string{
		{"timestamp", "phone", "message"},
		{"01/03/2024 10:00", "+551"},
		{"not a date", "+551", "lost"},
		{"", "+551", "lost too"},
		{" 01/03/2024 10:00 ", "  +551 ", "  kept  ", " SIM "},
	}

	result := GroupRows(rows, zap.NewNop())
	assert.Equal(t, 4, result.RowsTotal)
	assert.Equal(t, 3, result.RowsSkipped)
	require.Len(t, result.Groups, 1)

	msg := result.Groups[0].Messages[0]
	assert.Equal(t, "+551", result.Groups[0].PhoneNumber)
	assert.Equal(t, "kept", msg.Content)
	assert.True(t, msg.FromMe)
	assert.Equal(t, models.MessageTypeText, msg.MessageType)
}

func TestGroupRowsFromMe(t *testing.T) {
	for flag, want := range map[string]bool{
		"true":  true,
		"TRUE":  true,
		"1":     true,
		"sim":   true,
		"Você":  true,
		"false": false,
		"0":     false,
		"yes":   false,
		"":      false,
	} {
		rows := [][]string{{"01/03/2024 10:00", "5511", "oi", flag}}
		result := GroupRows(rows, zap.NewNop())
		require.Len(t, result.Groups, 1, flag)
		assert.Equal(t, want, result.Groups[0].Messages[0].FromMe, flag)
	}
}

func TestGroupRowsFirstRowWithDigitsIsData(t *testing.T) {
	rows := [][]string{
		{"01/03/2024 10:00", "5511999999999", "primeira"},
		{"01/03/2024 10:05", "5511999999999", "segunda"},
	}

	result := GroupRows(rows, zap.NewNop())
	require.Len(t, result.Groups, 1)
	assert.Len(t, result.Groups[0].Messages, 2)
}

// Known false positive of the header heuristic: a first data row with no
// digit-only field is dropped as if it were a header.
func TestGroupRowsHeaderHeuristicFalsePositive(t *testing.T) {
	rows := [][]string{
		{"01/03/2024 10:00", "+5511999999999", "primeira"},
		{"01/03/2024 10:05", "+5511999999999", "segunda"},
	}

	result := GroupRows(rows, zap.NewNop())
	require.Len(t, result.Groups, 1)
	assert.Equal(t, []string{"segunda"}, contents(result.Groups[0]))
}

func TestGroupRowsEmpty(t *testing.T) {
	result := GroupRows(nil, zap.NewNop())
	assert.Empty(t, result.Groups)
	assert.Zero(t, result.RowsTotal)

	result = GroupRows([][]string{{"timestamp", "phone", "message"}}, zap.NewNop())
	assert.Zero(t, result.RowsTotal)
	assert.Empty(t, result.Groups)
}

func TestIsHeader(t *testing.T) {
	assert.True(t, IsHeader([]string{"timestamp", "phone", "message", "from_me"}))
	assert.True(t, IsHeader([]string{"", "+55", "x"}))
	assert.False(t, IsHeader([]string{"data", "5511", "x"}))
	assert.True(t, IsHeader([]string{"data", " 5511", "x"}))
}

func TestReadCSV(t *testing.T) {
	body := "\xEF\xBB\xBFa,b,c\r\n\"1\",\"2, two\",\"3\",\"4\"\r\nshort\n"
	records, err := ReadCSV(strings.NewReader(body))
	require.NoError(t, err)

	assert.Equal(t, [][]string{
		{"a", "b", "c"},
		{"1", "2, two", "3", "4"},
		{"short"},
	}, records.Rows)
	assert.Zero(t, records.Malformed)
}

func TestReadCSVRejectsInvalidUTF8(t *testing.T) {
	_, err := ReadCSV(strings.NewReader("a,b,\xff\xfe\n"))
	assert.ErrorIs(t, err, ErrInvalidEncoding)
}

func contents(g Group) []string {
	var out []string
	for _, m := range g.Messages {
		out = append(out, m.Content)
	}
	return out
}
