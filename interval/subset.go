package interval

import (
	"context"
	"strconv"

	"github.com/grailbio/base/log"
	"github.com/grailbio/lrqc/artifact"
)

// DepthSubset restricts the depth BED at depthPath to the positions covered
// by the feature BED at featurePath, writing the result to outPath.  Each
// depth interval is split into its pieces inside the feature union; the
// columns after the third (the depth) are carried over unchanged.  Output
// order follows the depth BED, so a sorted disjoint depth BED yields a sorted
// disjoint result.
func DepthSubset(ctx context.Context, depthPath, featurePath, outPath string) (err error) {
	features, err := NewBEDUnionFromPath(ctx, featurePath)
	if err != nil {
		return err
	}
	in, err := artifact.Open(ctx, depthPath)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := in.Close(); cerr != nil && err == nil {
			err = artifact.WrapError(depthPath, cerr)
		}
	}()
	out, err := artifact.Create(ctx, outPath)
	if err != nil {
		return err
	}
	var (
		s      = NewScanner(in)
		buf    []byte
		nIn    int
		nOut   int
		werr   error
		nBases int64
	)
	for s.Scan() {
		e := s.Entry()
		rest := s.Rest()
		nIn++
		features.Intersect(e.ChrName, e.Start0, e.End, func(start, end PosType) {
			if werr != nil {
				return
			}
			buf = appendBEDLine(buf[:0], e.ChrName, start, end, rest)
			if _, werr = out.Write(buf); werr != nil {
				return
			}
			nOut++
			nBases += int64(end - start)
		})
		if werr != nil {
			break
		}
	}
	if werr == nil && s.Err() != nil {
		werr = &artifact.FormatError{Path: depthPath, Line: s.Line(), Err: s.Err()}
	}
	if cerr := out.Close(); cerr != nil && werr == nil {
		werr = cerr
	}
	if werr != nil {
		return werr
	}
	log.Printf("depth subset %s: %d interval(s) in, %d out, %d base(s)", outPath, nIn, nOut, nBases)
	return nil
}

func appendBEDLine(buf []byte, chrName string, start, end PosType, rest []byte) []byte {
	buf = append(buf, chrName...)
	buf = append(buf, '\t')
	buf = strconv.AppendInt(buf, int64(start), 10)
	buf = append(buf, '\t')
	buf = strconv.AppendInt(buf, int64(end), 10)
	if len(rest) > 0 {
		buf = append(buf, '\t')
		buf = append(buf, rest...)
	}
	return append(buf, '\n')
}
