package metrics

import (
	"github.com/huangang/tasktracker/internal/models"
	"github.com/prometheus/client_golang/prometheus"
	"gorm.io/gorm"
)

var (
	usersDesc = prometheus.NewDesc(
		prometheus.BuildFQName(namespace, "", "users"),
		"Number of registered users, by role.",
		[]string{"role"}, nil,
	)
	projectsDesc = prometheus.NewDesc(
		prometheus.BuildFQName(namespace, "", "projects"),
		"Number of projects, by status.",
		[]string{"status"}, nil,
	)
	tasksDesc = prometheus.NewDesc(
		prometheus.BuildFQName(namespace, "", "tasks"),
		"Number of tasks, by status.",
		[]string{"status"}, nil,
	)
	scrapeErrorsDesc = prometheus.NewDesc(
		prometheus.BuildFQName(namespace, "", "store_scrape_errors"),
		"Number of store queries that failed during the last scrape.",
		nil, nil,
	)
)

// StoreCollector reports entity counts straight from the database on every
// scrape. Counts are global and bypass the per-caller visibility rules.
type StoreCollector struct {
	db *gorm.DB
}

func NewStoreCollector(db *gorm.DB) *StoreCollector {
	return &StoreCollector{db: db}
}

func (c *StoreCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- usersDesc
	ch <- projectsDesc
	ch <- tasksDesc
	ch <- scrapeErrorsDesc
}

type groupCount struct {
	Label string
	Total int64
}

func (c *StoreCollector) Collect(ch chan<- prometheus.Metric) {
	failures := 0

	emit := func(desc *prometheus.Desc, model interface{}, column string, keys []string) {
		var rows []groupCount
		err := c.db.Model(model).
			Select(column + " AS label, COUNT(*) AS total").
			Group(column).
			Scan(&rows).Error
		if err != nil {
			failures++
			return
		}
		counts := make(map[string]int64, len(keys))
		for _, k := range keys {
			counts[k] = 0
		}
		for _, r := range rows {
			counts[r.Label] = r.Total
		}
		for k, n := range counts {
			ch <- prometheus.MustNewConstMetric(desc, prometheus.GaugeValue, float64(n), k)
		}
	}

	emit(usersDesc, &models.User{}, "role", []string{models.RoleMember, models.RoleAdmin})
	emit(projectsDesc, &models.Project{}, "status",
		[]string{models.ProjectStatusActive, models.ProjectStatusOnHold, models.ProjectStatusCompleted})
	emit(tasksDesc, &models.Task{}, "status", models.TaskStatuses)

	ch <- prometheus.MustNewConstMetric(scrapeErrorsDesc, prometheus.GaugeValue, float64(failures))
}
