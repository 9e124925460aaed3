package auth

const (
	RoleTeacher    = "teacher"
	RoleAccountant = "accountant"
	RoleAdmin      = "admin"
)

const (
	PermTeachersRead  = "staff.teachers.read"
	PermTeachersWrite = "staff.teachers.write"
	PermScheduleRead  = "schedule.read"
	PermScheduleWrite = "schedule.write"
	PermRatesRead     = "payroll.rates.read"
	PermRatesWrite    = "payroll.rates.write"
	PermSalaryRead    = "payroll.salary.read"
	PermSalaryWrite   = "payroll.salary.write"
	PermSalaryApprove = "payroll.salary.approve"
	PermSalaryPay     = "payroll.salary.pay"
	PermAuditRead     = "audit.read"
)

var DefaultPermissions = []string{
	PermTeachersRead,
	PermTeachersWrite,
	PermScheduleRead,
	PermScheduleWrite,
	PermRatesRead,
	PermRatesWrite,
	PermSalaryRead,
	PermSalaryWrite,
	PermSalaryApprove,
	PermSalaryPay,
	PermAuditRead,
}

var RolePermissions = map[string][]string{
	RoleTeacher: {
		PermTeachersRead,
		PermScheduleRead,
		PermSalaryRead,
	},
	RoleAccountant: {
		PermTeachersRead,
		PermScheduleRead,
		PermScheduleWrite,
		PermRatesRead,
		PermRatesWrite,
		PermSalaryRead,
		PermSalaryWrite,
		PermSalaryPay,
	},
	RoleAdmin: {
		PermTeachersRead,
		PermTeachersWrite,
		PermScheduleRead,
		PermScheduleWrite,
		PermRatesRead,
		PermRatesWrite,
		PermSalaryRead,
		PermSalaryWrite,
		PermSalaryApprove,
		PermSalaryPay,
		PermAuditRead,
	},
}
