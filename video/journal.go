package video

import (
	"time"

	log "github.com/sirupsen/logrus"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
)

// CaptureRecord is one journaled capture attempt.
type CaptureRecord struct {
	gorm.Model

	Session    string `gorm:"index"`
	Seq        int
	Path       string
	Outcome    string
	Error      string
	TakenAt    time.Time
	DurationMs int64
}

// Journal records capture attempts to a database from its own goroutine. A
// slow database never stalls the pipeline; records are dropped instead.
type Journal struct {
	Session string

	db    *gorm.DB
	c     chan *CaptureRecord
	close chan chan bool
}

// OpenJournal connects to a MySQL database.
func OpenJournal(dsn, session string) (*Journal, error) {
	db, err := gorm.Open(mysql.Open(dsn), &gorm.Config{})
	if err != nil {
		return nil, err
	}
	return NewJournal(db, session)
}

func NewJournal(db *gorm.DB, session string) (*Journal, error) {
	if err := db.AutoMigrate(&CaptureRecord{}); err != nil {
		return nil, err
	}
	j := &Journal{
		Session: session,
		db:      db,
		c:       make(chan *CaptureRecord, 100),
		close:   make(chan chan bool, 1),
	}
	go func() {
		for {
			select {
			case cc := <-j.close:
				cc <- true
				return
			case r := <-j.c:
				if err := j.db.Create(r).Error; err != nil {
					log.Errorf("Failed to journal capture %d: %v", r.Seq, err)
				}
			}
		}
	}()
	return j, nil
}

func newCaptureRecord(session string, r CaptureResult) *CaptureRecord {
	rec := &CaptureRecord{
		Session:    session,
		Seq:        r.Seq,
		Path:       r.Path,
		Outcome:    string(r.Outcome),
		TakenAt:    r.Time,
		DurationMs: r.Duration.Milliseconds(),
	}
	if r.Err != nil {
		rec.Error = r.Err.Error()
	}
	return rec
}

func (j *Journal) CaptureDone(r CaptureResult) {
	select {
	case j.c <- newCaptureRecord(j.Session, r):
	default:
		log.Warnf("Capture journal dropped record %d due to backlog", r.Seq)
	}
}

func (j *Journal) Close() {
	c := make(chan bool)
	j.close <- c
	<-c
}
