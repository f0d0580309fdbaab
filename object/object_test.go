package object

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	obj := New()
	assert.NotNil(t, obj)
	assert.Empty(t, obj.TableName)
	assert.NotNil(t, obj.Fields)
	assert.Empty(t, obj.Fields)
	assert.Empty(t, obj.Keys())
}

func TestSetGetField(t *testing.T) {
	obj := New()
	obj.SetField("name", "test")
	value, exists := obj.GetField("name")
	assert.True(t, exists)
	assert.Equal(t, "test", value)

	_, exists = obj.GetField("non_existing")
	assert.False(t, exists)
}

func TestKeysKeepInsertionOrder(t *testing.T) {
	obj := New()
	obj.SetField("password", "p")
	obj.SetField("email", "a@b.com")
	obj.SetField("age", 3)
	obj.SetField("email", "c@d.com")

	assert.Equal(t, []string{"password", "email", "age"}, obj.Keys())
	assert.Equal(t, "c@d.com", obj.Fields["email"])
	assert.Equal(t, 3, obj.Len())
}

func TestKeysIncludeDirectMapWrites(t *testing.T) {
	obj := New()
	obj.SetField("z", 1)
	obj.Fields["b"] = 2
	obj.Fields["a"] = 3

	assert.Equal(t, []string{"z", "a", "b"}, obj.Keys())
}

func TestDeleteField(t *testing.T) {
	obj := New()
	obj.SetField("a", 1)
	obj.SetField("b", 2)
	obj.SetField("c", 3)

	obj.DeleteField("b")
	obj.DeleteField("missing")

	assert.Equal(t, []string{"a", "c"}, obj.Keys())
	_, exists := obj.GetField("b")
	assert.False(t, exists)
}

func TestFromMapSortsKeys(t *testing.T) {
	obj := FromMap(map[string]any{"c": 1, "a": 2, "b": 3})
	assert.Equal(t, []string{"a", "b", "c"}, obj.Keys())
}

func TestSetGetTableName(t *testing.T) {
	obj := New()
	obj.SetTableName("test_table")
	assert.Equal(t, "test_table", obj.GetTableName())

	obj.SetTableName("")
	assert.Equal(t, "", obj.GetTableName())
}

func TestSetGetFields(t *testing.T) {
	obj := New()
	fields := map[string]interface{}{
		"name": "test",
		"age":  30,
	}
	obj.SetFields(fields)
	assert.Equal(t, fields, obj.GetFields())
	assert.Equal(t, []string{"age", "name"}, obj.Keys())

	obj.SetFields(nil)
	assert.Nil(t, obj.GetFields())
	assert.Empty(t, obj.Keys())
}

func TestClone(t *testing.T) {
	obj := New()
	obj.TableName = "users"
	obj.SetField("b", 1)
	obj.SetField("a", 2)

	c := obj.Clone()
	c.SetField("c", 3)

	assert.Equal(t, "users", c.TableName)
	assert.Equal(t, []string{"b", "a", "c"}, c.Keys())
	assert.Equal(t, []string{"b", "a"}, obj.Keys())
}

func TestID(t *testing.T) {
	obj := New()
	_, ok := obj.ID()
	assert.False(t, ok)

	obj.SetField("id", int64(7))
	id, ok := obj.ID()
	assert.True(t, ok)
	assert.Equal(t, int64(7), id)
}

func TestGetString(t *testing.T) {
	obj := New()
	obj.SetField("name", "test")
	value, exists := obj.GetString("name")
	assert.True(t, exists)
	assert.Equal(t, "test", value)

	obj.SetField("raw", []byte("bytes"))
	value, exists = obj.GetString("raw")
	assert.True(t, exists)
	assert.Equal(t, "bytes", value)

	obj.SetField("age", 30)
	_, exists = obj.GetString("age")
	assert.False(t, exists)

	_, exists = obj.GetString("non_existing")
	assert.False(t, exists)
}

func TestGetInt64(t *testing.T) {
	obj := New()
	obj.SetField("age", int64(30))
	value, exists := obj.GetInt64("age")
	assert.True(t, exists)
	assert.Equal(t, int64(30), value)

	obj.SetField("count", "42")
	value, exists = obj.GetInt64("count")
	assert.True(t, exists)
	assert.Equal(t, int64(42), value)

	obj.SetField("name", "test")
	_, exists = obj.GetInt64("name")
	assert.False(t, exists)

	_, exists = obj.GetInt64("non_existing")
	assert.False(t, exists)
}

func TestGetFloat64(t *testing.T) {
	obj := New()
	obj.SetField("price", 9.5)
	value, exists := obj.GetFloat64("price")
	assert.True(t, exists)
	assert.Equal(t, 9.5, value)

	_, exists = obj.GetFloat64("non_existing")
	assert.False(t, exists)
}

func TestGetBool(t *testing.T) {
	obj := New()
	obj.SetField("published", true)
	value, exists := obj.GetBool("published")
	assert.True(t, exists)
	assert.True(t, value)

	obj.SetField("name", "x")
	_, exists = obj.GetBool("name")
	assert.False(t, exists)
}

func TestUnmarshalJSONKeepsDocumentOrder(t *testing.T) {
	var obj Object
	err := json.Unmarshal([]byte(`{"password":"p","email":"a@b.com","age":30,"score":1.5,"active":true,"note":null}`), &obj)
	require.NoError(t, err)

	assert.Equal(t, []string{"password", "email", "age", "score", "active", "note"}, obj.Keys())
	assert.Equal(t, int64(30), obj.Fields["age"])
	assert.Equal(t, 1.5, obj.Fields["score"])
	assert.Equal(t, true, obj.Fields["active"])
	assert.Nil(t, obj.Fields["note"])
}

func TestUnmarshalJSONRejectsNonObject(t *testing.T) {
	var obj Object
	err := json.Unmarshal([]byte(`[1,2]`), &obj)
	assert.ErrorIs(t, err, ErrNotAnObject)
}

func TestMarshalJSONKeepsKeyOrder(t *testing.T) {
	obj := New()
	obj.SetField("z", 1)
	obj.SetField("a", "x")
	obj.SetField("m", nil)

	data, err := json.Marshal(obj)
	require.NoError(t, err)
	assert.Equal(t, `{"z":1,"a":"x","m":null}`, string(data))

	var nilObj *Object
	data, err = json.Marshal(nilObj)
	require.NoError(t, err)
	assert.Equal(t, "null", string(data))
}
