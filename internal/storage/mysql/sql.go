package mysql

const deleteTariffsSQL = `DELETE FROM tariffs`

// One placeholder group per row; see tariffRowPlaceholders.
const insertTariffsPrefix = "INSERT INTO tariffs\n" +
	"  (seq, name, tier, location, start_month, start_day, end_month, end_day, season_year,\n" +
	"   single_rate, double_rate, triple_rate, description)\nVALUES "

const tariffRowPlaceholders = "(?,?,?,?,?,?,?,?,?,?,?,?,?)"

const upsertServiceFeeSQL = `
INSERT INTO service_fees (code, description, fee)
VALUES (?, ?, ?)
ON DUPLICATE KEY UPDATE
  description = VALUES(description),
  fee         = VALUES(fee),
  updated_at  = CURRENT_TIMESTAMP
`

const deleteFeeRulesSQL = `DELETE FROM fee_rules`

const insertFeeRuleSQL = `
INSERT INTO fee_rules (origin, destination, formula, description, lodging_location)
VALUES (?, ?, ?, ?, ?)
`

const insertRejectSQL = `
INSERT INTO ingest_rejects (source, line, reason)
VALUES (?, ?, ?)
`

// -----------------------------------------------------------------------------
// READ QUERIES
// -----------------------------------------------------------------------------

// seq keeps the sheet order; ties in pricing go to the earlier row.
const listTariffsSQL = `
SELECT name, tier, location, start_month, start_day, end_month, end_day, season_year,
       single_rate, double_rate, triple_rate, COALESCE(description, '')
FROM tariffs
ORDER BY seq
`

const listServiceFeesSQL = `SELECT code, fee FROM service_fees`

const listFeeRulesSQL = `
SELECT origin, destination, formula, COALESCE(description, ''), COALESCE(lodging_location, '')
FROM fee_rules
ORDER BY id
`
