package decode

import (
	"reflect"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIndexFields_TagsAndOmission(t *testing.T) {
	type rec struct {
		ID       int64  `db:"id"`
		Name     string `db:"name"`
		Internal string `db:"-"`
		Untagged bool
		hidden   string
	}
	_ = rec{}.hidden
	idx := indexFields(reflect.TypeOf(rec{}))
	assert.Equal(t, []string{"id", "name", "Untagged"}, idx.names)
	_, ok := idx.byName["internal"]
	assert.False(t, ok)
	_, ok = idx.byName["hidden"]
	assert.False(t, ok)
}

func TestIndexFields_Flatten(t *testing.T) {
	type address struct {
		City string `db:"city"`
	}
	type person struct {
		Name    string  `db:"name"`
		Address address `db:",flatten"`
	}
	idx := indexFields(reflect.TypeOf(person{}))
	assert.Equal(t, []string{"name", "city"}, idx.names)
	assert.Equal(t, []int{1, 0}, idx.byName["city"])
}

func TestIndexFields_EmbeddedMerges(t *testing.T) {
	type base struct {
		ID int64 `db:"id"`
	}
	type rec struct {
		base
		Name string `db:"name"`
	}
	idx := indexFields(reflect.TypeOf(rec{}))
	assert.Equal(t, []string{"id", "name"}, idx.names)
}

func TestIndexFields_CollisionOutermostWins(t *testing.T) {
	type inner struct {
		Name string `db:"name"`
	}
	type rec struct {
		Name  string `db:"name"`
		Inner inner  `db:",flatten"`
	}
	idx := indexFields(reflect.TypeOf(rec{}))
	require.Equal(t, []string{"name"}, idx.names)
	assert.Equal(t, []int{0}, idx.byName["name"])
}

func TestParseFieldTag(t *testing.T) {
	tests := []struct {
		tag     string
		name    string
		flatten bool
		omit    bool
	}{
		{"", "", false, false},
		{"col", "col", false, false},
		{"col,flatten", "col", true, false},
		{",flatten", "", true, false},
		{"-", "", false, true},
	}
	for _, tt := range tests {
		name, flatten, omit := parseFieldTag(tt.tag)
		assert.Equal(t, tt.name, name, "tag %q", tt.tag)
		assert.Equal(t, tt.flatten, flatten, "tag %q", tt.tag)
		assert.Equal(t, tt.omit, omit, "tag %q", tt.tag)
	}
}

func TestFoldName(t *testing.T) {
	assert.Equal(t, "already_lower", foldName("already_lower"))
	assert.Equal(t, "username", foldName("UserName"))
	assert.Equal(t, "id", foldName("ID"))
}

func TestFieldByPath_AllocatesPointers(t *testing.T) {
	type inner struct {
		N int
	}
	type outer struct {
		Inner *inner
	}
	var o outer
	fv := fieldByPath(reflect.ValueOf(&o).Elem(), []int{0, 0})
	fv.SetInt(7)
	require.NotNil(t, o.Inner)
	assert.Equal(t, 7, o.Inner.N)
}
