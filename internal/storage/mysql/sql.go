package mysql

// One row per business location; the whole snapshot document lives in `doc`.
// The single-statement upsert is what makes a Write atomic for readers.
const upsertSnapshotSQL = `
INSERT INTO review_snapshots (location_ref, doc)
VALUES (?, ?)
ON DUPLICATE KEY UPDATE
  doc        = VALUES(doc),
  updated_at = CURRENT_TIMESTAMP
`

const getSnapshotSQL = `
SELECT doc FROM review_snapshots WHERE location_ref = ?
`

const createSnapshotTableSQL = `
CREATE TABLE IF NOT EXISTS review_snapshots (
  location_ref VARCHAR(191) NOT NULL PRIMARY KEY,
  doc          MEDIUMBLOB   NOT NULL,
  updated_at   TIMESTAMP    NOT NULL DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP
)
`
