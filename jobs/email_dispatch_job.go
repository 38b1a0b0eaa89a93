package jobs

import (
	"log"

	"github.com/certforge/cert_portal/services"
)

// DispatchPendingEmails is the cron entry point; staff can also trigger the
// same batch from the dispatch endpoint.
func DispatchPendingEmails() {
	log.Println("Running job: DispatchPendingEmails...")

	dispatched, err := services.DispatchBatch()
	if err != nil {
		log.Printf("🔥 Email dispatch job failed: %v", err)
		return
	}

	if dispatched > 0 {
		log.Printf("✅ Dispatching %d certificate emails", dispatched)
	}
}
