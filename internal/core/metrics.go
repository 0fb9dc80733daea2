// AngelaMos | 2026
// metrics.go

package core

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	MembershipDowngrades = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "forum_membership_downgrades_total",
		Help: "Gold memberships downgraded to bronze after expiry",
	})
	MembershipUpgrades = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "forum_membership_upgrades_total",
		Help: "Memberships upgraded to gold after a confirmed payment",
	})
	QuotaDenials = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "forum_post_quota_denials_total",
		Help: "Post creations refused by the bronze post ceiling",
	})
	PolicyDenials = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "forum_policy_denials_total",
		Help: "Actions refused by the authorization policy",
	}, []string{"action"})
	SearchesLogged = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "forum_searches_logged_total",
		Help: "Tag searches recorded for popularity tracking",
	})
)

func init() {
	prometheus.MustRegister(
		MembershipDowngrades,
		MembershipUpgrades,
		QuotaDenials,
		PolicyDenials,
		SearchesLogged,
	)
}
