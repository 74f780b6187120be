package pileup

import (
	"golang.org/x/sys/unix"

	"github.com/ngs-tools/hisat3n-table/internal"
)

// mmapFile mmaps path read-only and returns the mapped bytes along with a
// closer that unmaps it, mirroring the mmap pattern the fasta package uses
// for the reference file.
func mmapFile(path string) (data []byte, close func() error, err error) {
	f := internal.FileOpen(path)
	defer internal.Close(f)

	stat, err := f.Stat()
	if err != nil {
		return nil, nil, err
	}
	size := stat.Size()
	if size == 0 {
		return nil, func() error { return nil }, nil
	}
	data, err = unix.Mmap(int(f.Fd()), 0, int(size), unix.PROT_READ, unix.MAP_SHARED)
	if err != nil {
		return nil, nil, err
	}
	return data, func() error { return unix.Munmap(data) }, nil
}
