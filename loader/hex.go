// Package loader ingests Intel HEX images into a vm.Memory, decoding each
// record line and writing its data bytes into the word-addressed store at
// the addresses the record specifies.
package loader

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/lookbusy1344/rv32sim/vm"
)

// record types consumed from an Intel HEX line.
const (
	recData                  = 0x00
	recEndOfFile              = 0x01
	recExtendedSegmentAddress = 0x02
	recStartSegmentAddress    = 0x03
	recExtendedLinearAddress  = 0x04
	recStartLinearAddress     = 0x05
)

// LoadHexFile reads the Intel HEX image at path into mem, returning the
// start address recorded by a 0x05 (start linear address) record, or 0 if
// none was present. A malformed line is a host-side error: it is returned
// to the caller (wrapped with the offending line number) without rolling
// back whatever was already written to mem.
func LoadHexFile(path string, mem *vm.Memory) (uint32, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, fmt.Errorf("loader: opening %s: %w", path, err)
	}
	defer f.Close()

	var (
		startAddress uint32
		loadBase     uint32
		lineNo       int
	)

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		rec, err := parseRecord(line)
		if err != nil {
			return 0, fmt.Errorf("loader: %s:%d: %w", path, lineNo, err)
		}

		switch rec.recType {
		case recData:
			for i, b := range rec.data {
				loadAddress := (loadBase | uint32(rec.address)) + uint32(i)
				shift := (loadAddress % 4) * 8
				data := uint32(b) << shift
				mask := uint32(0xFF) << shift
				mem.WriteWord(loadAddress&0xFFFFFFFC, data, mask)
			}

		case recEndOfFile:
			return startAddress, nil

		case recExtendedSegmentAddress:
			loadBase = 0
			for _, b := range rec.data {
				loadBase = (loadBase << 8) | (uint32(b) << 4)
			}

		case recStartSegmentAddress:
			// Ignored: nothing in this simulator models segment:offset
			// addressing or an x86 real-mode entry point.

		case recExtendedLinearAddress:
			// Ported verbatim from the source, including its unusual
			// accumulation when length > 2: each data byte shifts the
			// running value left 8 bits and ORs the byte in at bit 16
			// rather than bit 0, so a record with more than two data bytes
			// does not produce the "obvious" big-endian-uint16 result.
			loadBase = 0
			for _, b := range rec.data {
				loadBase = (loadBase << 8) | (uint32(b) << 16)
			}

		case recStartLinearAddress:
			startAddress = 0
			for _, b := range rec.data {
				startAddress = (startAddress << 8) | uint32(b)
			}
		}
	}
	if err := scanner.Err(); err != nil {
		return 0, fmt.Errorf("loader: reading %s: %w", path, err)
	}

	return 0, fmt.Errorf("loader: %s: missing end-of-file record", path)
}

type hexRecord struct {
	length   int
	address  uint16
	recType  int
	data     []byte
	checksum byte
}

// parseRecord parses one ":"-prefixed Intel HEX line.
func parseRecord(line string) (hexRecord, error) {
	if len(line) == 0 || line[0] != ':' {
		return hexRecord{}, fmt.Errorf("line does not start with colon character")
	}
	body := line[1:]

	// length(2) + address(4) + type(2) + data(2*length) + checksum(2)
	if len(body) < 8 {
		return hexRecord{}, fmt.Errorf("line too short")
	}

	lengthByte, err := hexByte(body[0:2])
	if err != nil {
		return hexRecord{}, fmt.Errorf("invalid record length: %w", err)
	}
	length := int(lengthByte)
	address, err := strconv.ParseUint(body[2:6], 16, 16)
	if err != nil {
		return hexRecord{}, fmt.Errorf("invalid record address: %w", err)
	}
	recTypeByte, err := hexByte(body[6:8])
	if err != nil {
		return hexRecord{}, fmt.Errorf("invalid record type: %w", err)
	}
	recType := int(recTypeByte)

	wantLen := 8 + 2*length + 2
	if len(body) < wantLen {
		return hexRecord{}, fmt.Errorf("line shorter than declared record length")
	}

	data := make([]byte, length)
	for i := 0; i < length; i++ {
		b, err := hexByte(body[8+2*i : 10+2*i])
		if err != nil {
			return hexRecord{}, fmt.Errorf("invalid data byte %d: %w", i, err)
		}
		data[i] = b
	}

	checksum, err := hexByte(body[8+2*length : 10+2*length])
	if err != nil {
		return hexRecord{}, fmt.Errorf("invalid checksum: %w", err)
	}

	return hexRecord{
		length:   length,
		address:  uint16(address),
		recType:  recType,
		data:     data,
		checksum: checksum,
	}, nil
}

func hexByte(s string) (byte, error) {
	v, err := strconv.ParseUint(s, 16, 8)
	if err != nil {
		return 0, err
	}
	return byte(v), nil
}
