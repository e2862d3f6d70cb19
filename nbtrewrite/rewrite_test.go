package nbtrewrite

import (
	"bytes"
	"encoding/binary"
	"testing"
)

// The helpers below hand-assemble raw NBT byte streams for test fixtures.
// They exist only to build inputs/expectations; Rewrite itself must not
// depend on them.

type builder struct {
	buf bytes.Buffer
}

func (b *builder) u8(v byte)    { b.buf.WriteByte(v) }
func (b *builder) u16(v uint16) { binary.Write(&b.buf, binary.BigEndian, v) }
func (b *builder) i32(v int32)  { binary.Write(&b.buf, binary.BigEndian, v) }
func (b *builder) f64(v float64) {
	binary.Write(&b.buf, binary.BigEndian, v)
}
func (b *builder) raw(p []byte) { b.buf.Write(p) }

func (b *builder) name(n string) {
	b.u16(uint16(len(n)))
	b.buf.WriteString(n)
}

// tagHeader writes an id byte and name for a compound member.
func (b *builder) tagHeader(id tagID, name string) {
	b.u8(byte(id))
	b.name(name)
}

func (b *builder) intTag(name string, v int32) {
	b.tagHeader(tagInt, name)
	b.i32(v)
}

func (b *builder) end() { b.u8(0) }

// root starts the fixed 3-byte prelude for a named (empty-name) root
// compound.
func (b *builder) root() {
	b.u8(byte(tagCompound))
	b.u16(0)
}

func TestRewrite_ChunkAndLevelCoordinates(t *testing.T) {
	// {xPos:Int=0, zPos:Int=0, Level:{xPos:Int=0, zPos:Int=0}}
	var b builder
	b.root()
	b.intTag("xPos", 0)
	b.intTag("zPos", 0)
	b.tagHeader(tagCompound, "Level")
	b.intTag("xPos", 0)
	b.intTag("zPos", 0)
	b.end() // end Level
	b.end() // end root

	d := NewDisplacement(0, 0, 1, 2)
	var out bytes.Buffer
	if err := Rewrite(bytes.NewReader(b.buf.Bytes()), &out, d); err != nil {
		t.Fatalf("Rewrite: %v", err)
	}

	var want builder
	want.root()
	want.intTag("xPos", 32)
	want.intTag("zPos", 64)
	want.tagHeader(tagCompound, "Level")
	want.intTag("xPos", 32)
	want.intTag("zPos", 64)
	want.end()
	want.end()

	if !bytes.Equal(out.Bytes(), want.buf.Bytes()) {
		t.Errorf("got %x, want %x", out.Bytes(), want.buf.Bytes())
	}
}

func TestRewrite_PosListDouble(t *testing.T) {
	// One Pos:List<Double>=[10.5, 64.0, -3.25] directly inside the root
	// compound.
	var b builder
	b.root()
	b.tagHeader(tagList, "Pos")
	b.u8(byte(tagDouble))
	b.i32(3)
	b.f64(10.5)
	b.f64(64.0)
	b.f64(-3.25)
	b.end()

	d := NewDisplacement(0, 0, -1, 0)
	var out bytes.Buffer
	if err := Rewrite(bytes.NewReader(b.buf.Bytes()), &out, d); err != nil {
		t.Fatalf("Rewrite: %v", err)
	}

	var want builder
	want.root()
	want.tagHeader(tagList, "Pos")
	want.u8(byte(tagDouble))
	want.i32(3)
	want.f64(10.5 + (-32 * 16))
	want.f64(64.0)
	want.f64(-3.25 + 0)
	want.end()

	if !bytes.Equal(out.Bytes(), want.buf.Bytes()) {
		t.Errorf("got %x, want %x", out.Bytes(), want.buf.Bytes())
	}
}

func TestRewrite_EntityXYZInts(t *testing.T) {
	// {x:Int=100, y:Int=64, z:Int=-50}
	var b builder
	b.root()
	b.intTag("x", 100)
	b.intTag("y", 64)
	b.intTag("z", -50)
	b.end()

	d := NewDisplacement(0, 0, 0, 1) // blockZDisp = 1*32*16 = 512
	var out bytes.Buffer
	if err := Rewrite(bytes.NewReader(b.buf.Bytes()), &out, d); err != nil {
		t.Fatalf("Rewrite: %v", err)
	}

	var want builder
	want.root()
	want.intTag("x", 100)
	want.intTag("y", 64)
	want.intTag("z", -50+512)
	want.end()

	if !bytes.Equal(out.Bytes(), want.buf.Bytes()) {
		t.Errorf("got %x, want %x", out.Bytes(), want.buf.Bytes())
	}
}

func TestRewrite_ZeroDisplacementIdentity(t *testing.T) {
	// {TileX:Int=5, TileY:Int=70, TileZ:Int=9}, cloned (2,2)->(2,2).
	var b builder
	b.root()
	b.intTag("TileX", 5)
	b.intTag("TileY", 70)
	b.intTag("TileZ", 9)
	b.end()

	d := NewDisplacement(2, 2, 2, 2)
	var out bytes.Buffer
	if err := Rewrite(bytes.NewReader(b.buf.Bytes()), &out, d); err != nil {
		t.Fatalf("Rewrite: %v", err)
	}
	if !bytes.Equal(out.Bytes(), b.buf.Bytes()) {
		t.Errorf("expected tag-for-tag identity with zero displacement, got %x, want %x", out.Bytes(), b.buf.Bytes())
	}
}

func TestRewrite_UnknownTagIDErrors(t *testing.T) {
	var b builder
	b.root()
	b.u8(99) // invalid tag id
	b.name("bogus")
	b.end()

	d := NewDisplacement(0, 0, 0, 0)
	var out bytes.Buffer
	err := Rewrite(bytes.NewReader(b.buf.Bytes()), &out, d)
	if err == nil {
		t.Fatal("expected an error for an unknown tag id, got nil")
	}
	if _, ok := err.(*NbtError); !ok {
		t.Errorf("expected *NbtError, got %T: %v", err, err)
	}
}

func TestRewrite_PosListUnexpectedShapeCopiedUnchanged(t *testing.T) {
	// A Pos list of 4 doubles must be copied unchanged, not treated as a
	// coordinate triple.
	var b builder
	b.root()
	b.tagHeader(tagList, "Pos")
	b.u8(byte(tagDouble))
	b.i32(4)
	b.f64(1)
	b.f64(2)
	b.f64(3)
	b.f64(4)
	b.end()

	d := NewDisplacement(0, 0, 5, 5)
	var out bytes.Buffer
	if err := Rewrite(bytes.NewReader(b.buf.Bytes()), &out, d); err != nil {
		t.Fatalf("Rewrite: %v", err)
	}
	if !bytes.Equal(out.Bytes(), b.buf.Bytes()) {
		t.Errorf("expected an unexpected-shape Pos list to be copied unchanged, got %x, want %x", out.Bytes(), b.buf.Bytes())
	}
}

func TestRewrite_CompoundXTagNotDisplaced(t *testing.T) {
	// A compound tag literally named "x" must not trigger the Int rewrite
	// branch -- the match is gated on tagType == Int.
	var b builder
	b.root()
	b.tagHeader(tagCompound, "x")
	b.intTag("y", 1)
	b.end() // end nested "x" compound
	b.end() // end root

	d := NewDisplacement(0, 0, 3, 3)
	var out bytes.Buffer
	if err := Rewrite(bytes.NewReader(b.buf.Bytes()), &out, d); err != nil {
		t.Fatalf("Rewrite: %v", err)
	}
	if !bytes.Equal(out.Bytes(), b.buf.Bytes()) {
		t.Errorf("expected a compound named \"x\" to pass through unchanged, got %x, want %x", out.Bytes(), b.buf.Bytes())
	}
}

func TestRewrite_EmptyCompoundNameEchoed(t *testing.T) {
	// A compound tag member whose name is the empty string must parse and
	// echo correctly.
	var b builder
	b.root()
	b.tagHeader(tagCompound, "")
	b.intTag("value", 1)
	b.end()
	b.end()

	d := NewDisplacement(0, 0, 1, 1)
	var out bytes.Buffer
	if err := Rewrite(bytes.NewReader(b.buf.Bytes()), &out, d); err != nil {
		t.Fatalf("Rewrite: %v", err)
	}
	if !bytes.Equal(out.Bytes(), b.buf.Bytes()) {
		t.Errorf("got %x, want %x", out.Bytes(), b.buf.Bytes())
	}
}

func TestRewrite_ListOfCompoundDescendsIntoElements(t *testing.T) {
	// A List of Compound must still descend into each element so nested
	// coordinate names are rewritten.
	var b builder
	b.root()
	b.tagHeader(tagList, "Items")
	b.u8(byte(tagCompound))
	b.i32(1)
	b.intTag("xPos", 7)
	b.end() // end the one compound element
	b.end() // end root

	d := NewDisplacement(0, 0, 1, 0) // chunkXDisp = 32
	var out bytes.Buffer
	if err := Rewrite(bytes.NewReader(b.buf.Bytes()), &out, d); err != nil {
		t.Fatalf("Rewrite: %v", err)
	}

	var want builder
	want.root()
	want.tagHeader(tagList, "Items")
	want.u8(byte(tagCompound))
	want.i32(1)
	want.intTag("xPos", 39)
	want.end()
	want.end()

	if !bytes.Equal(out.Bytes(), want.buf.Bytes()) {
		t.Errorf("got %x, want %x", out.Bytes(), want.buf.Bytes())
	}
}
