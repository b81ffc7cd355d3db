package classfile

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testClass() *Class {
	cp := ConstantPool{
		{}, // index 0 unused
		{Tag: TagUtf8, UTF8: "square"},               // 1
		{Tag: TagUtf8, UTF8: "(I)I"},                  // 2
		{Tag: TagNameAndType, NameIndex: 1, DescriptorIndex: 2}, // 3
		{Tag: TagMethodref, ClassIndex: 0, NameAndTypeIndex: 3}, // 4
		{Tag: TagInteger, IntValue: 42}, // 5
	}
	square := &Method{Name: "square", Descriptor: "(I)I", Code: CodeAttribute{Code: []byte{0xAC}}}
	main := &Method{Name: "main", Descriptor: "([Ljava/lang/String;)V", Code: CodeAttribute{Code: []byte{0xB1}}}
	return &Class{ConstantPool: cp, Methods: []*Method{main, square}}
}

func TestFindMethod(t *testing.T) {
	c := testClass()
	m, ok := c.FindMethod("square", "(I)I")
	require.True(t, ok)
	assert.Equal(t, "square", m.Name)

	_, ok = c.FindMethod("missing", "()V")
	assert.False(t, ok)
}

func TestResolveMethodRef(t *testing.T) {
	c := testClass()
	m, err := c.ResolveMethodRef(4)
	require.NoError(t, err)
	assert.Equal(t, "square", m.Name)
}

func TestResolveMethodRefFallsBackOnUnresolvable(t *testing.T) {
	c := testClass()
	// Index 5 is an Integer entry, not a Methodref: falls back to idx % len(methods).
	m, err := c.ResolveMethodRef(5)
	require.NoError(t, err)
	assert.NotNil(t, m)
}

func TestConstantInt(t *testing.T) {
	c := testClass()
	v, err := c.ConstantInt(5)
	require.NoError(t, err)
	assert.Equal(t, int32(42), v)

	_, err = c.ConstantInt(1) // Utf8, not Integer
	assert.Error(t, err)
}

func TestParamCount(t *testing.T) {
	cases := []struct {
		descriptor string
		want       int
	}{
		{"()V", 0},
		{"(I)I", 1},
		{"(II)I", 2},
		{"([Ljava/lang/String;)V", 1},
		{"(I[II)V", 3},
	}
	for _, c := range cases {
		got, err := ParamCount(c.descriptor)
		require.NoError(t, err)
		assert.Equal(t, c.want, got, c.descriptor)
	}

	_, err := ParamCount("I)V")
	assert.Error(t, err)
}
