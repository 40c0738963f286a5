package reporting

import (
	"time"

	"github.com/shopspring/decimal"
)

// SaleLine is one ledger row as it appears inside a daily report.
type SaleLine struct {
	ID          int64           `json:"id"`
	ProductCode string          `json:"kode_barang"`
	ProductName string          `json:"nama_barang"`
	Quantity    int             `json:"jumlah"`
	UnitPrice   decimal.Decimal `json:"harga_satuan"`
	Total       decimal.Decimal `json:"total_harga"`
	RecordedAt  time.Time       `json:"waktu_transaksi"`
}

// DailyReport summarizes one calendar day of sales.
type DailyReport struct {
	Date          string          `json:"date"`
	Count         int64           `json:"jumlah_transaksi"`
	Revenue       decimal.Decimal `json:"total_pendapatan"`
	Profit        decimal.Decimal `json:"total_keuntungan"`
	ChangePercent decimal.Decimal `json:"persentase_perubahan"`
	Transactions  []SaleLine      `json:"transaksi"`
}

// DayBreakdown is one day's slice of a monthly report.
type DayBreakdown struct {
	Date    string          `json:"date"`
	Count   int64           `json:"jumlah_transaksi"`
	Revenue decimal.Decimal `json:"total_pendapatan"`
}

// MonthlyReport summarizes one calendar month of sales.
type MonthlyReport struct {
	Year          int             `json:"year"`
	Month         int             `json:"month"`
	Count         int64           `json:"jumlah_transaksi"`
	Revenue       decimal.Decimal `json:"total_pendapatan"`
	Quantity      int64           `json:"jumlah_terjual"`
	ChangePercent decimal.Decimal `json:"persentase_perubahan"`
	Days          []DayBreakdown  `json:"per_hari"`
}

// MonthRevenue is one month's revenue inside a yearly report. All twelve
// months are always present, zero-filled when nothing sold.
type MonthRevenue struct {
	Month   int             `json:"month"`
	Revenue decimal.Decimal `json:"total_pendapatan"`
}

// YearlyReport summarizes revenue per month over one year.
type YearlyReport struct {
	Year   int             `json:"year"`
	Total  decimal.Decimal `json:"total_pendapatan"`
	Months []MonthRevenue  `json:"per_bulan"`
}
