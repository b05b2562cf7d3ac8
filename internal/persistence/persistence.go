package persistence

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/dhazelett/iDRAC-Fan-Controller/internal/calibration"
	"github.com/dhazelett/iDRAC-Fan-Controller/internal/ui"
	bolt "go.etcd.io/bbolt"
)

const BucketCalibration = "calibration"

type Persistence interface {
	Init() error

	SaveCalibration(serverId string, result calibration.Result) error
	LoadCalibration(serverId string) (calibration.Result, error)
	DeleteCalibration(serverId string) error
}

type persistence struct {
	dbPath string
}

func NewPersistence(dbPath string) Persistence {
	return &persistence{
		dbPath: dbPath,
	}
}

// Init ensures the database file can be opened and the required buckets exist.
func (p persistence) Init() error {
	db, err := p.openPersistence()
	if err != nil {
		return err
	}
	defer p.closePersistence(db)

	return db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(BucketCalibration))
		return err
	})
}

func (p persistence) openPersistence() (*bolt.DB, error) {
	db, err := bolt.Open(p.dbPath, 0600, &bolt.Options{Timeout: 1 * time.Minute})
	if err != nil {
		ui.Error("Could not open database file: %s", p.dbPath)
		return nil, err
	}
	return db, nil
}

func (p persistence) closePersistence(db *bolt.DB) {
	if err := db.Close(); err != nil {
		ui.Error("Error closing database: %v", err)
	}
}

// SaveCalibration stores the calibration result for the given server id.
func (p persistence) SaveCalibration(serverId string, result calibration.Result) error {
	db, err := p.openPersistence()
	if err != nil {
		return err
	}
	defer p.closePersistence(db)

	data, err := json.Marshal(result)
	if err != nil {
		return err
	}

	return db.Update(func(tx *bolt.Tx) error {
		bucket, err := tx.CreateBucketIfNotExists([]byte(BucketCalibration))
		if err != nil {
			return err
		}
		return bucket.Put([]byte(serverId), data)
	})
}

// LoadCalibration retrieves the stored calibration result for the given
// server id. Returns os.ErrNotExist when no result has been stored yet.
func (p persistence) LoadCalibration(serverId string) (calibration.Result, error) {
	result := calibration.Result{}

	db, err := p.openPersistence()
	if err != nil {
		return result, err
	}
	defer p.closePersistence(db)

	err = db.View(func(tx *bolt.Tx) error {
		bucket := tx.Bucket([]byte(BucketCalibration))
		if bucket == nil {
			return fmt.Errorf("%w: no calibration data for %s", os.ErrNotExist, serverId)
		}
		data := bucket.Get([]byte(serverId))
		if data == nil {
			return fmt.Errorf("%w: no calibration data for %s", os.ErrNotExist, serverId)
		}
		return json.Unmarshal(data, &result)
	})
	return result, err
}

// DeleteCalibration removes the stored calibration result for the given server id.
func (p persistence) DeleteCalibration(serverId string) error {
	db, err := p.openPersistence()
	if err != nil {
		return err
	}
	defer p.closePersistence(db)

	return db.Update(func(tx *bolt.Tx) error {
		bucket := tx.Bucket([]byte(BucketCalibration))
		if bucket == nil {
			return nil
		}
		return bucket.Delete([]byte(serverId))
	})
}
