// Package snapshot implements the binary dump format: a magic header, a
// sequence of per-database sections each holding type-tagged key/value
// entries, and a terminator opcode.
package snapshot

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	"math/rand"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/sandia-minimega/minikv/internal/keyspace"
	"github.com/sandia-minimega/minikv/internal/object"
)

const (
	magic = "REDIS0000"

	opDBIndex    = 0xFE
	opTerminator = 0xFF
	typeString   = 0
	typeList     = 1
	typeSet      = 2
)

// Save writes dbs to path atomically: the format is written to a temp file
// in the same directory, then renamed into place, so a reader never
// observes a partial file.
func Save(path string, dbs []*keyspace.Database) (err error) {
	dir := filepath.Dir(path)
	name := FormatTempName(time.Now().Unix(), rand.Int())
	tmpPath := filepath.Join(dir, name)

	tmp, err := os.OpenFile(tmpPath, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0644)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			os.Remove(tmpPath)
		}
	}()

	w := bufio.NewWriter(tmp)
	if err = writeAll(w, dbs); err != nil {
		tmp.Close()
		return err
	}
	if err = w.Flush(); err != nil {
		tmp.Close()
		return err
	}
	if err = tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmpPath, path)
}

func writeAll(w io.Writer, dbs []*keyspace.Database) error {
	if _, err := w.Write([]byte(magic)); err != nil {
		return err
	}
	for i, db := range dbs {
		if db.Len() == 0 {
			continue
		}
		if err := writeByte(w, opDBIndex); err != nil {
			return err
		}
		if err := writeU32(w, uint32(i)); err != nil {
			return err
		}
		for _, k := range db.Keys() {
			v, _ := db.Get(k)
			if err := writeEntry(w, k, v); err != nil {
				return err
			}
		}
	}
	return writeByte(w, opTerminator)
}

func writeEntry(w io.Writer, key string, v *object.Value) error {
	var tag byte
	switch v.Type() {
	case object.TypeString:
		tag = typeString
	case object.TypeList:
		tag = typeList
	case object.TypeSet:
		tag = typeSet
	}
	if err := writeByte(w, tag); err != nil {
		return err
	}
	if err := writeBytes(w, []byte(key)); err != nil {
		return err
	}

	switch v.Type() {
	case object.TypeString:
		return writeBytes(w, v.Bytes())
	case object.TypeList:
		els := v.List().Range(0, v.List().Len()-1)
		if err := writeU32(w, uint32(len(els))); err != nil {
			return err
		}
		for _, el := range els {
			if err := writeBytes(w, el); err != nil {
				return err
			}
		}
		return nil
	case object.TypeSet:
		set := v.Set()
		if err := writeU32(w, uint32(len(set))); err != nil {
			return err
		}
		for el := range set {
			if err := writeBytes(w, []byte(el)); err != nil {
				return err
			}
		}
		return nil
	}
	return fmt.Errorf("snapshot: unknown value type")
}

func writeByte(w io.Writer, b byte) error {
	_, err := w.Write([]byte{b})
	return err
}

func writeU32(w io.Writer, n uint32) error {
	var buf [4]byte
	binary.BigEndian.PutUint32(buf[:], n)
	_, err := w.Write(buf[:])
	return err
}

func writeBytes(w io.Writer, b []byte) error {
	if err := writeU32(w, uint32(len(b))); err != nil {
		return err
	}
	_, err := w.Write(b)
	return err
}

// Load reads path into ks, which must already have the right number of
// databases allocated; a db index beyond what's configured is an error.
// A missing file is not an error, an absent dump means an empty server.
func Load(path string, ks *keyspace.Keyspace) error {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	defer f.Close()

	r := bufio.NewReader(f)
	hdr := make([]byte, len(magic))
	if _, err := io.ReadFull(r, hdr); err != nil {
		return fmt.Errorf("snapshot: short read on header: %w", err)
	}
	if string(hdr) != magic {
		return fmt.Errorf("snapshot: bad magic %q", hdr)
	}

	dbIdx := 0
	db, err := ks.DB(dbIdx)
	if err != nil {
		return err
	}

	for {
		op, err := r.ReadByte()
		if err != nil {
			return fmt.Errorf("snapshot: short read on opcode: %w", err)
		}
		switch op {
		case opTerminator:
			return nil
		case opDBIndex:
			n, err := readU32(r)
			if err != nil {
				return err
			}
			db, err = ks.DB(int(n))
			if err != nil {
				return fmt.Errorf("snapshot: db index %d out of range: %w", n, err)
			}
		default:
			if err := readEntry(r, db, op); err != nil {
				return err
			}
		}
	}
}

func readEntry(r *bufio.Reader, db *keyspace.Database, tag byte) error {
	key, err := readBytes(r)
	if err != nil {
		return fmt.Errorf("snapshot: short read on key: %w", err)
	}

	var v *object.Value
	switch tag {
	case typeString:
		val, err := readBytes(r)
		if err != nil {
			return fmt.Errorf("snapshot: short read on string value: %w", err)
		}
		v = object.NewString(val)
	case typeList:
		n, err := readU32(r)
		if err != nil {
			return err
		}
		v = object.NewList()
		for i := uint32(0); i < n; i++ {
			el, err := readBytes(r)
			if err != nil {
				return fmt.Errorf("snapshot: short read on list element: %w", err)
			}
			v.List().PushBack(el)
		}
	case typeSet:
		n, err := readU32(r)
		if err != nil {
			return err
		}
		v = object.NewSet()
		for i := uint32(0); i < n; i++ {
			el, err := readBytes(r)
			if err != nil {
				return fmt.Errorf("snapshot: short read on set element: %w", err)
			}
			v.Set()[string(el)] = struct{}{}
		}
	default:
		return fmt.Errorf("snapshot: unknown type tag %d", tag)
	}

	if db.Exists(string(key)) {
		return fmt.Errorf("snapshot: duplicate key %q", key)
	}
	db.Set(string(key), v)
	return nil
}

func readU32(r io.Reader) (uint32, error) {
	var buf [4]byte
	if _, err := io.ReadFull(r, buf[:]); err != nil {
		return 0, fmt.Errorf("snapshot: short read on length: %w", err)
	}
	return binary.BigEndian.Uint32(buf[:]), nil
}

func readBytes(r io.Reader) ([]byte, error) {
	n, err := readU32(r)
	if err != nil {
		return nil, err
	}
	buf := make([]byte, n)
	if _, err := io.ReadFull(r, buf); err != nil {
		return nil, err
	}
	return buf, nil
}

// FormatTempName builds the temp-<epoch>.<random>.rdb scratch name Save
// writes to before renaming into place.
func FormatTempName(epoch int64, random int) string {
	return "temp-" + strconv.FormatInt(epoch, 10) + "." + strconv.Itoa(random) + ".rdb"
}
