package tuitest

import (
	"bytes"
	"io"
)

// query is a terminal request the program may block on and the reply a
// real terminal would send.
type query struct {
	ask, reply []byte
}

var queries = []query{
	{[]byte("\x1b[6n"), []byte("\x1b[1;1R")},
	{[]byte("\x1b]10;?\x07"), []byte("\x1b]10;rgb:cccc/cccc/cccc\x07")},
	{[]byte("\x1b]10;?\x1b\\"), []byte("\x1b]10;rgb:cccc/cccc/cccc\x1b\\")},
	{[]byte("\x1b]11;?\x07"), []byte("\x1b]11;rgb:1a1a/1f1f/2c2c\x07")},
	{[]byte("\x1b]11;?\x1b\\"), []byte("\x1b]11;rgb:1a1a/1f1f/2c2c\x1b\\")},
}

// responder answers cursor and colour queries found in the output stream.
type responder struct {
	w   io.Writer
	buf []byte
}

func newResponder(w io.Writer) *responder {
	return &responder{w: w, buf: make([]byte, 0, 128)}
}

// Process scans chunk, which may continue a sequence split across reads.
func (r *responder) Process(chunk []byte) {
	r.buf = append(r.buf, chunk...)
	for r.answerOne() {
	}
	if len(r.buf) > 256 {
		r.buf = r.buf[len(r.buf)-64:]
	}
}

// answerOne replies to the earliest pending query.
func (r *responder) answerOne() bool {
	first, at := -1, -1
	for i, q := range queries {
		if idx := bytes.Index(r.buf, q.ask); idx >= 0 && (at < 0 || idx < at) {
			first, at = i, idx
		}
	}
	if first < 0 {
		return false
	}
	q := queries[first]
	r.buf = r.buf[at+len(q.ask):]
	_, _ = r.w.Write(q.reply)
	return true
}
