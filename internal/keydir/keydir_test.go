package keydir

import (
	"reflect"
	"sort"
	"testing"
)

func kinds() []Kind {
	return []Kind{KindHash, KindOrdered}
}

func TestKeyDirContract(t *testing.T) {
	for _, kind := range kinds() {
		t.Run(kind.String(), func(t *testing.T) {
			kd := New(kind)

			if _, ok := kd.Lookup("missing"); ok {
				t.Fatal("lookup on empty keydir returned an entry")
			}

			kd.Upsert("a", Entry{Offset: 0, KeySize: 1, ValueSize: 1, Timestamp: 1})
			kd.Upsert("a", Entry{Offset: 14, KeySize: 1, ValueSize: 2, Timestamp: 1})

			e, ok := kd.Lookup("a")
			if !ok {
				t.Fatal("expected entry for a")
			}
			if e.Offset != 14 || e.ValueSize != 2 {
				t.Errorf("last upsert did not win: %+v", e)
			}
			if e.RecordSize() != 15 {
				t.Errorf("RecordSize() = %d, want 15", e.RecordSize())
			}

			if kd.Len() != 1 {
				t.Errorf("Len() = %d, want 1", kd.Len())
			}

			if !kd.Remove("a") {
				t.Error("Remove returned false for a present key")
			}
			if kd.Remove("a") {
				t.Error("Remove returned true for an absent key")
			}
			if _, ok := kd.Lookup("a"); ok {
				t.Error("removed key is still visible")
			}
		})
	}
}

func TestKeyDirAscend(t *testing.T) {
	keys := []string{"pear", "apple", "fig", "banana"}

	for _, kind := range kinds() {
		t.Run(kind.String(), func(t *testing.T) {
			kd := New(kind)
			for i, k := range keys {
				kd.Upsert(k, Entry{Offset: int64(i)})
			}

			var got []string
			kd.Ascend(func(key string, _ Entry) bool {
				got = append(got, key)
				return true
			})

			want := append([]string(nil), keys...)
			sort.Strings(want)

			if kind == KindHash {
				sort.Strings(got)
			}
			if !reflect.DeepEqual(got, want) {
				t.Fatalf("Ascend visited %v, want %v", got, want)
			}

			count := 0
			kd.Ascend(func(string, Entry) bool {
				count++
				return false
			})
			if count != 1 {
				t.Errorf("Ascend did not stop early, visited %d", count)
			}
		})
	}
}

func TestOrderedAscendRange(t *testing.T) {
	kd := NewOrdered(2)
	for _, k := range []string{"a", "b", "c", "d", "e"} {
		kd.Upsert(k, Entry{})
	}

	tests := []struct {
		name       string
		start, end string
		want       []string
	}{
		{"bounded", "b", "d", []string{"b", "c"}},
		{"open end", "c", "", []string{"c", "d", "e"}},
		{"everything", "", "", []string{"a", "b", "c", "d", "e"}},
		{"empty interval", "x", "z", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got []string
			kd.AscendRange(tt.start, tt.end, func(key string, _ Entry) bool {
				got = append(got, key)
				return true
			})
			if !reflect.DeepEqual(got, tt.want) {
				t.Fatalf("AscendRange(%q, %q) = %v, want %v", tt.start, tt.end, got, tt.want)
			}
		})
	}
}

func TestParseKind(t *testing.T) {
	tests := []struct {
		in      string
		want    Kind
		wantErr bool
	}{
		{"", KindHash, false},
		{"hash", KindHash, false},
		{"BTree", KindOrdered, false},
		{"ordered", KindOrdered, false},
		{"skiplist", KindHash, true},
	}

	for _, tt := range tests {
		got, err := ParseKind(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseKind(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseKind(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}
