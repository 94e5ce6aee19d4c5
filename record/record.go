// Package record captures bus traffic into a bolt database so it can be
// replayed into a fresh monitor later.
package record

import (
	"errors"
	"fmt"
	"time"

	"github.com/CodedInternet/godynastat/canbus"
	"github.com/asdine/storm/v3"
	"github.com/asdine/storm/v3/q"
)

// Record is one captured frame.
type Record struct {
	Seq       int    `storm:"id,increment"`
	Session   string `storm:"index"`
	ID        uint32 `storm:"index"`
	Len       uint8
	Data      []byte
	Timestamp time.Time
}

// ErrCorrupt marks a stored record whose length does not fit its data.
var ErrCorrupt = errors.New("corrupt record")

// Frame rebuilds the captured frame.
func (r Record) Frame() (canbus.Frame, error) {
	if int(r.Len) > len(r.Data) {
		return canbus.Frame{}, fmt.Errorf("record %d: %w: length %d, %d data bytes", r.Seq, ErrCorrupt, r.Len, len(r.Data))
	}
	f, err := canbus.NewFrame(r.ID, r.Data[:r.Len])
	if err != nil {
		return f, err
	}
	f.Timestamp = r.Timestamp
	return f, nil
}

type Recorder struct {
	db      *storm.DB
	session string
}

// Open opens or creates the capture database at path. Frames saved through
// the returned recorder are tagged with session.
func Open(path, session string) (r *Recorder, err error) {
	db, err := storm.Open(path)
	if err != nil {
		return nil, err
	}

	if err = db.Init(&Record{}); err != nil {
		db.Close()
		return nil, err
	}

	return &Recorder{db: db, session: session}, nil
}

func (r *Recorder) Save(f canbus.Frame) error {
	rec := &Record{
		Session:   r.session,
		ID:        f.ID,
		Len:       f.Len,
		Data:      append([]byte(nil), f.Bytes()...),
		Timestamp: f.Timestamp,
	}
	return r.db.Save(rec)
}

// Session returns the frames captured in session in capture order.
func (r *Recorder) Session(session string) (recs []Record, err error) {
	err = r.db.Select(q.Eq("Session", session)).OrderBy("Seq").Find(&recs)
	if err == storm.ErrNotFound {
		return nil, nil
	}
	return recs, err
}

// Sessions lists the distinct session names in the database.
func (r *Recorder) Sessions() (sessions []string, err error) {
	var recs []Record
	if err = r.db.All(&recs); err != nil {
		return nil, err
	}

	seen := make(map[string]bool)
	for _, rec := range recs {
		if !seen[rec.Session] {
			seen[rec.Session] = true
			sessions = append(sessions, rec.Session)
		}
	}
	return sessions, nil
}

// Replay feeds every frame of session to fn in capture order, stopping at the
// first error fn returns.
func (r *Recorder) Replay(session string, fn func(canbus.Frame) error) (n int, err error) {
	recs, err := r.Session(session)
	if err != nil {
		return 0, err
	}

	for _, rec := range recs {
		f, err := rec.Frame()
		if err != nil {
			return n, err
		}
		if err = fn(f); err != nil {
			return n, err
		}
		n++
	}
	return n, nil
}

func (r *Recorder) Close() error {
	return r.db.Close()
}
