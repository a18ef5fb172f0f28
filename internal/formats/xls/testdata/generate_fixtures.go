//go:build ignore

// This program generates the BIFF8 .xls fixtures for the xls reader tests.
// Run it from internal/formats/xls: go run testdata/generate_fixtures.go
package main

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"os"
	"unicode/utf16"
)

type dateSerial float64

var rows = [][]any{
	{"Staff Roster"},
	{"Generated 2025-12-23"},
	{}, {}, {},
	{"Name", "GAP(s)", "Assigned", "DaysRemain", "Email"},
	{"Alex", "MC/Supply", dateSerial(45000), 3.0, "alex@example.org"},
	{"Blair", "DS/Shelter", dateSerial(45001), "n/a", "blair@example.org"},
	{"Casey", "MC/Feeding", dateSerial(45002), -1.0, "casey@example.org"},
}

const (
	xfGeneral = 15
	xfDate    = 16

	endOfChain = 0xFFFFFFFE
	freeSect   = 0xFFFFFFFF
	fatSect    = 0xFFFFFFFD
	noStream   = 0xFFFFFFFF
)

func main() {
	for _, f := range []struct {
		name     string
		datemode uint16
	}{
		{"testdata/roster.xls", 0},
		{"testdata/roster1904.xls", 1},
	} {
		if err := os.WriteFile(f.name, compound(workbook(f.datemode)), 0644); err != nil {
			fmt.Fprintf(os.Stderr, "Error generating %s: %v\n", f.name, err)
			os.Exit(1)
		}
	}
	fmt.Println("Test fixtures generated successfully.")
}

func pack(fields ...any) []byte {
	var buf bytes.Buffer
	for _, f := range fields {
		if b, ok := f.([]byte); ok {
			buf.Write(b)
			continue
		}
		binary.Write(&buf, binary.LittleEndian, f)
	}
	return buf.Bytes()
}

func rec(id uint16, data []byte) []byte {
	return pack(id, uint16(len(data)), data)
}

func bof(dt uint16) []byte {
	return rec(0x0809, pack(uint16(0x0600), dt, uint16(0x0DBB), uint16(0x07CC), uint32(0), uint32(6)))
}

func shortString(s string) []byte {
	return pack(uint8(len(s)), uint8(0), []byte(s))
}

func longString(s string) []byte {
	return pack(uint16(len(s)), uint8(0), []byte(s))
}

func font() []byte {
	return rec(0x0031, pack(uint16(200), uint16(0), uint16(0x7FFF), uint16(400), uint16(0),
		uint8(0), uint8(0), uint8(0), uint8(0), shortString("Arial")))
}

func xf(format uint16, style bool) []byte {
	flags, used := uint16(0x0001), uint8(0)
	if style {
		flags, used = 0xFFF5, 0xF4
	}
	return rec(0x00E0, pack(uint16(0), format, flags, uint8(0x20), uint8(0), uint8(0), used,
		uint32(0), uint32(0), uint16(0x20C0)))
}

func globals(datemode uint16, sheetOffset uint32, sst []string, total uint32) []byte {
	var out bytes.Buffer
	out.Write(bof(0x0005))
	out.Write(rec(0x0042, pack(uint16(1200))))
	out.Write(rec(0x003D, pack(uint16(0), uint16(0), uint16(0x3000), uint16(0x2000), uint16(0x0038),
		uint16(0), uint16(0), uint16(1), uint16(0x0258))))
	out.Write(rec(0x0022, pack(datemode)))
	for i := 0; i < 4; i++ {
		out.Write(font())
	}
	for i := 0; i < 15; i++ {
		out.Write(xf(0, true))
	}
	out.Write(xf(0, false))
	out.Write(xf(14, false))
	out.Write(rec(0x0293, pack(uint16(0x8000), uint8(0), uint8(0xFF))))
	out.Write(rec(0x0085, pack(sheetOffset, uint8(0), uint8(0), shortString("Staff Roster"))))
	table := pack(total, uint32(len(sst)))
	for _, s := range sst {
		table = append(table, longString(s)...)
	}
	out.Write(rec(0x00FC, table))
	out.Write(rec(0x000A, nil))
	return out.Bytes()
}

func sheet(index map[string]uint32) []byte {
	ncols := 0
	for _, row := range rows {
		ncols = max(ncols, len(row))
	}
	var out bytes.Buffer
	out.Write(bof(0x0010))
	out.Write(rec(0x0200, pack(uint32(0), uint32(len(rows)), uint16(0), uint16(ncols), uint16(0))))
	for r, row := range rows {
		for c, v := range row {
			switch v := v.(type) {
			case string:
				out.Write(rec(0x00FD, pack(uint16(r), uint16(c), uint16(xfGeneral), index[v])))
			case dateSerial:
				out.Write(rec(0x0203, pack(uint16(r), uint16(c), uint16(xfDate), float64(v))))
			case float64:
				out.Write(rec(0x0203, pack(uint16(r), uint16(c), uint16(xfGeneral), v)))
			}
		}
	}
	out.Write(rec(0x000A, nil))
	return out.Bytes()
}

func workbook(datemode uint16) []byte {
	var sst []string
	index := map[string]uint32{}
	var total uint32
	for _, row := range rows {
		for _, v := range row {
			s, ok := v.(string)
			if !ok {
				continue
			}
			total++
			if _, seen := index[s]; !seen {
				index[s] = uint32(len(sst))
				sst = append(sst, s)
			}
		}
	}
	size := len(globals(datemode, 0, sst, total))
	stream := append(globals(datemode, uint32(size), sst, total), sheet(index)...)
	padded := max(4096, (len(stream)+511)/512*512)
	return append(stream, make([]byte, padded-len(stream))...)
}

func dirEntry(name string, typ uint8, child, start uint32, size uint64) []byte {
	var n [64]byte
	nameLen := uint16(0)
	if name != "" {
		var u bytes.Buffer
		for _, r := range utf16.Encode([]rune(name + "\x00")) {
			binary.Write(&u, binary.LittleEndian, r)
		}
		copy(n[:], u.Bytes())
		nameLen = uint16(u.Len())
	}
	color := uint8(1)
	if name == "" {
		color = 0
	}
	return pack(n[:], nameLen, typ, color, uint32(noStream), uint32(noStream), child,
		make([]byte, 16), uint32(0), uint64(0), uint64(0), start, size)
}

// compound wraps a Workbook stream in a version 3 compound file: FAT in
// sector 0, directory in sector 1, stream from sector 2.
func compound(stream []byte) []byte {
	n := len(stream) / 512
	fat := []uint32{fatSect, endOfChain}
	for i := 0; i < n-1; i++ {
		fat = append(fat, uint32(3+i))
	}
	fat = append(fat, endOfChain)
	for len(fat) < 128 {
		fat = append(fat, freeSect)
	}

	var out bytes.Buffer
	out.Write([]byte{0xD0, 0xCF, 0x11, 0xE0, 0xA1, 0xB1, 0x1A, 0xE1})
	out.Write(make([]byte, 16))
	out.Write(pack(uint16(0x003E), uint16(0x0003), uint16(0xFFFE), uint16(9), uint16(6), make([]byte, 6)))
	out.Write(pack(uint32(0), uint32(1), uint32(1), uint32(0), uint32(4096),
		uint32(endOfChain), uint32(0), uint32(endOfChain), uint32(0)))
	out.Write(pack(uint32(0)))
	for i := 0; i < 108; i++ {
		out.Write(pack(uint32(freeSect)))
	}
	out.Write(pack(fat))
	out.Write(dirEntry("Root Entry", 5, 1, endOfChain, 0))
	out.Write(dirEntry("Workbook", 2, noStream, 2, uint64(len(stream))))
	out.Write(dirEntry("", 0, noStream, 0, 0))
	out.Write(dirEntry("", 0, noStream, 0, 0))
	out.Write(stream)
	return out.Bytes()
}
