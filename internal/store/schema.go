package store

import "github.com/avi3tal/emflow/internal/domain"

// recordColumns is the insert column list shared by both dialects.
const recordColumns = `user_id, user_name, user_email, user_role,
	em_date, is_em_submitted,
	client_id, client_name, project_id, project_name, project_code, is_project_assigned,
	task_for, task_type,
	billing_type, upwork_hours, upwork_minutes,
	time_spend_hours, time_spend_minutes,
	billable_hours, billable_minutes, billable_description,
	nonbillable_hours, nonbillable_minutes, nonbillable_description,
	qa_required, qa_approved,
	task_incharge_id, task_incharge_name, meter_id, meter_name,
	is_working_day, is_holiday`

const recordColumnCount = 33

const postgresSchema = `
CREATE TABLE IF NOT EXISTS em_data (
	em_id SERIAL PRIMARY KEY,

	user_id VARCHAR(50) NOT NULL,
	user_name VARCHAR(100) NOT NULL,
	user_email VARCHAR(100) NOT NULL,
	user_role VARCHAR(50) NOT NULL,

	em_date DATE NOT NULL,
	is_em_submitted BOOLEAN DEFAULT FALSE,

	client_id VARCHAR(50) NOT NULL,
	client_name VARCHAR(100) NOT NULL,
	project_id VARCHAR(50) NOT NULL,
	project_name VARCHAR(200) NOT NULL,
	project_code VARCHAR(50) NOT NULL,
	is_project_assigned BOOLEAN DEFAULT TRUE,

	task_for VARCHAR(20) DEFAULT 'Self',
	task_type VARCHAR(50) NOT NULL,

	billing_type VARCHAR(20) DEFAULT 'Hourly',
	upwork_hours INT DEFAULT 0,
	upwork_minutes INT DEFAULT 0,
	time_spend_hours INT DEFAULT 0,
	time_spend_minutes INT DEFAULT 0,
	billable_hours INT DEFAULT 0,
	billable_minutes INT DEFAULT 0,
	billable_description TEXT,
	nonbillable_hours INT DEFAULT 0,
	nonbillable_minutes INT DEFAULT 0,
	nonbillable_description TEXT,

	qa_required BOOLEAN DEFAULT FALSE,
	qa_approved BOOLEAN DEFAULT FALSE,
	task_incharge_id VARCHAR(50),
	task_incharge_name VARCHAR(100),
	meter_id VARCHAR(50),
	meter_name VARCHAR(100),

	is_working_day BOOLEAN DEFAULT TRUE,
	is_holiday BOOLEAN DEFAULT FALSE,
	created_at TIMESTAMPTZ DEFAULT CURRENT_TIMESTAMP,
	updated_at TIMESTAMPTZ DEFAULT CURRENT_TIMESTAMP
);
CREATE INDEX IF NOT EXISTS idx_user_date ON em_data (user_id, em_date);
CREATE INDEX IF NOT EXISTS idx_date ON em_data (em_date);
CREATE INDEX IF NOT EXISTS idx_user_submitted ON em_data (user_id, is_em_submitted);
`

// SQLite has no DATE or BOOLEAN; dates are ISO text and flags are 0/1.
const sqliteSchema = `
CREATE TABLE IF NOT EXISTS em_data (
	em_id INTEGER PRIMARY KEY AUTOINCREMENT,

	user_id TEXT NOT NULL,
	user_name TEXT NOT NULL,
	user_email TEXT NOT NULL,
	user_role TEXT NOT NULL,

	em_date TEXT NOT NULL,
	is_em_submitted INTEGER NOT NULL DEFAULT 0,

	client_id TEXT NOT NULL,
	client_name TEXT NOT NULL,
	project_id TEXT NOT NULL,
	project_name TEXT NOT NULL,
	project_code TEXT NOT NULL,
	is_project_assigned INTEGER NOT NULL DEFAULT 1,

	task_for TEXT DEFAULT 'Self',
	task_type TEXT NOT NULL,

	billing_type TEXT DEFAULT 'Hourly',
	upwork_hours INTEGER DEFAULT 0,
	upwork_minutes INTEGER DEFAULT 0,
	time_spend_hours INTEGER DEFAULT 0,
	time_spend_minutes INTEGER DEFAULT 0,
	billable_hours INTEGER DEFAULT 0,
	billable_minutes INTEGER DEFAULT 0,
	billable_description TEXT,
	nonbillable_hours INTEGER DEFAULT 0,
	nonbillable_minutes INTEGER DEFAULT 0,
	nonbillable_description TEXT,

	qa_required INTEGER DEFAULT 0,
	qa_approved INTEGER DEFAULT 0,
	task_incharge_id TEXT,
	task_incharge_name TEXT,
	meter_id TEXT,
	meter_name TEXT,

	is_working_day INTEGER NOT NULL DEFAULT 1,
	is_holiday INTEGER NOT NULL DEFAULT 0,
	created_at TEXT DEFAULT CURRENT_TIMESTAMP,
	updated_at TEXT DEFAULT CURRENT_TIMESTAMP
);
CREATE INDEX IF NOT EXISTS idx_user_date ON em_data (user_id, em_date);
CREATE INDEX IF NOT EXISTS idx_date ON em_data (em_date);
CREATE INDEX IF NOT EXISTS idx_user_submitted ON em_data (user_id, is_em_submitted);
`

func recordArgs(r domain.Record) []any {
	return []any{
		r.UserID, r.UserName, r.UserEmail, r.UserRole,
		r.Date, r.Submitted,
		r.ClientID, r.ClientName, r.ProjectID, r.ProjectName, r.ProjectCode, r.Assigned,
		r.TaskFor, r.TaskType,
		r.BillingType, r.UpworkHours, r.UpworkMinutes,
		r.TimeSpendHours, r.TimeSpendMinutes,
		r.BillableHours, r.BillableMinutes, r.BillableDescription,
		r.NonbillableHours, r.NonbillableMinutes, r.NonbillableDescription,
		r.QARequired, r.QAApproved,
		r.TaskInchargeID, r.TaskInchargeName, r.MeterID, r.MeterName,
		r.WorkingDay, r.Holiday,
	}
}
