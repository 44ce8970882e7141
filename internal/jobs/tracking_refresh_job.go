// Package jobs provides the scheduled background tasks of the storefront
// back end, built on github.com/robfig/cron/v3. The only job today is the
// tracking refresh: it polls the carrier for every active shipment and feeds
// the updates through the same command handler the tracking webhook uses.
package jobs

import (
	"context"
	"log/slog"
	"time"

	"storefront/internal/core/application/usecases/commands"
	"storefront/internal/core/application/usecases/queries"
	"storefront/internal/core/domain/model/audit"
	"storefront/internal/core/domain/model/order"
	"storefront/internal/core/ports"

	"github.com/robfig/cron/v3"
)

// systemActor names the job in the audit trail.
const systemActor = "tracking_refresh"

// TrackingRefreshJob periodically polls the carrier for every shipment still
// in flight and applies the resulting tracking events. A shipment that fails
// to refresh is logged and skipped; the next run retries it.
type TrackingRefreshJob struct {
	activeShipments queries.GetActiveShipmentsQueryHandler
	carrier         ports.ShippingCarrier
	updateTracking  commands.UpdateShipmentTrackingCommandHandler
	schedule        string
	providerTimeout time.Duration
	cron            *cron.Cron
	logger          *slog.Logger
}

// NewTrackingRefreshJob creates the tracking refresh job. schedule is a
// six-field cron expression, e.g. "0 */10 * * * *" for every ten minutes.
func NewTrackingRefreshJob(
	activeShipments queries.GetActiveShipmentsQueryHandler,
	carrier ports.ShippingCarrier,
	updateTracking commands.UpdateShipmentTrackingCommandHandler,
	schedule string,
	providerTimeout time.Duration,
	logger *slog.Logger,
) *TrackingRefreshJob {
	return &TrackingRefreshJob{
		activeShipments: activeShipments,
		carrier:         carrier,
		updateTracking:  updateTracking,
		schedule:        schedule,
		providerTimeout: providerTimeout,
		cron:            cron.New(cron.WithSeconds()),
		logger:          logger.With("component", "tracking_refresh_job"),
	}
}

// Start schedules the job.
func (j *TrackingRefreshJob) Start() error {
	_, err := j.cron.AddFunc(j.schedule, func() {
		j.Run(context.Background())
	})
	if err != nil {
		return err
	}

	j.cron.Start()
	j.logger.InfoContext(context.Background(), "Tracking refresh job started",
		"schedule", j.schedule)
	return nil
}

// Stop stops the job. In-flight runs finish.
func (j *TrackingRefreshJob) Stop() {
	j.cron.Stop()
	j.logger.InfoContext(context.Background(), "Tracking refresh job stopped")
}

// Run executes one refresh pass. Exported so a run can also be triggered
// manually, e.g. from an operational endpoint or a test.
func (j *TrackingRefreshJob) Run(ctx context.Context) {
	shipments, err := j.activeShipments.Handle(ctx, queries.NewGetActiveShipmentsQuery())
	if err != nil {
		j.logger.ErrorContext(ctx, "Failed to list active shipments", "error", err)
		return
	}

	refreshed := 0
	for _, shipment := range shipments {
		if err = j.refreshShipment(ctx, shipment); err != nil {
			j.logger.WarnContext(ctx, "Failed to refresh shipment tracking",
				"shipment_id", shipment.ShipmentID.String(),
				"tracking_number", shipment.TrackingNumber,
				"error", err)
			continue
		}
		refreshed++
	}

	if len(shipments) > 0 {
		j.logger.InfoContext(ctx, "Tracking refresh pass finished",
			"active", len(shipments), "refreshed", refreshed)
	}
}

func (j *TrackingRefreshJob) refreshShipment(
	ctx context.Context,
	shipment queries.GetActiveShipmentsQueryResponse,
) error {
	trackCtx, cancel := context.WithTimeout(ctx, j.providerTimeout)
	defer cancel()

	infos, err := j.carrier.Track(trackCtx, shipment.TrackingNumber, shipment.Carrier)
	if err != nil {
		return err
	}
	if len(infos) == 0 {
		return nil
	}

	events := make([]order.TrackingEvent, 0, len(infos))
	for _, info := range infos {
		events = append(events, order.TrackingEvent{
			Status:      info.Status,
			Description: info.Description,
			Location:    info.Location,
			OccurredAt:  info.Timestamp,
		})
	}

	cmd, err := commands.NewUpdateShipmentTrackingCommand(
		shipment.ShipmentID, events, systemActor, audit.ActorSystem)
	if err != nil {
		return err
	}

	return j.updateTracking.Handle(ctx, cmd)
}
