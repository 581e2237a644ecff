package models

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecode_StampsStoreID(t *testing.T) {
	doc := Document{ID: 9, Data: json.RawMessage(`{"id":1,"name":"Work","color":"#4285f4"}`)}

	c, err := Decode[Category](doc)
	require.NoError(t, err)
	assert.Equal(t, Category{ID: 9, Name: "Work", Color: "#4285f4"}, c)
}

func TestDecode_MalformedJSON(t *testing.T) {
	_, err := Decode[Tag](Document{ID: 1, Data: json.RawMessage(`{"name":`)})
	require.Error(t, err)
}

func TestEncodeDecode_Activity(t *testing.T) {
	start := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
	in := Activity{
		Description: "Standup",
		StartTime:   start,
		EndTime:     start.Add(30 * time.Minute),
		CategoryID:  1,
		Tags:        []int64{2, 3},
		CreatedAt:   start,
	}

	doc, err := Encode(5, in)
	require.NoError(t, err)
	assert.Equal(t, int64(5), doc.ID)

	out, err := Decode[Activity](doc)
	require.NoError(t, err)
	in.ID = 5
	assert.Equal(t, in, out)
	assert.Equal(t, 30*time.Minute, out.Duration())
}

func TestActivity_JSONFieldNames(t *testing.T) {
	b, err := json.Marshal(Activity{ID: 1, CategoryID: 2, Tags: []int64{}})
	require.NoError(t, err)

	var m map[string]any
	require.NoError(t, json.Unmarshal(b, &m))
	for _, k := range []string{"id", "description", "startTime", "endTime", "categoryId", "tags", "createdAt"} {
		assert.Contains(t, m, k)
	}
}

func TestCollection_Validate(t *testing.T) {
	for _, c := range AllCollections {
		require.NoError(t, c.Validate())
	}
	require.Error(t, Collection("settings").Validate())
	require.Error(t, Collection("activities; DROP TABLE tags").Validate())
}

func TestStoredRecord_Variants(t *testing.T) {
	recs := []StoredRecord{
		PlainRecord{ID: 1, Data: json.RawMessage(`{}`)},
		EnvelopeRecord{ID: 2, Ciphertext: "abc"},
	}

	var plain, envelopes int
	for _, r := range recs {
		switch r.(type) {
		case PlainRecord:
			plain++
		case EnvelopeRecord:
			envelopes++
		}
	}
	assert.Equal(t, 1, plain)
	assert.Equal(t, 1, envelopes)
	assert.Equal(t, int64(2), recs[1].RecordID())
}
