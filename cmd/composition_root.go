package cmd

import (
	"log/slog"
	"os"

	orderhttp "storefront/internal/adapters/in/http"
	"storefront/internal/adapters/out/postgres"
	"storefront/internal/adapters/out/postgres/auditrepo"
	"storefront/internal/adapters/out/shippo"
	"storefront/internal/adapters/out/stripepay"
	"storefront/internal/core/application/usecases/commands"
	"storefront/internal/core/application/usecases/queries"
	"storefront/internal/jobs"
	"storefront/internal/pkg/orderlock"

	"gorm.io/gorm"
)

type CompositionRoot struct {
	configs    Config
	gormDB     *gorm.DB
	uowFactory postgres.GormUnitOfWorkFactory
	locks      *orderlock.Registry
	auditor    *auditrepo.GormAuditRecorder
	gateway    *stripepay.Gateway
	carrier    *shippo.Carrier
	logger     *slog.Logger
}

func NewCompositionRoot(configs Config, gormDB *gorm.DB) (CompositionRoot, error) {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	gateway, err := stripepay.NewGateway(configs.StripeAPIKey, configs.StripeWebhookSecret, logger)
	if err != nil {
		return CompositionRoot{}, err
	}

	carrier, err := shippo.NewCarrier(configs.ShippoAPIToken, logger)
	if err != nil {
		return CompositionRoot{}, err
	}

	return CompositionRoot{
		configs:    configs,
		gormDB:     gormDB,
		uowFactory: *postgres.NewGormUnitOfWorkFactory(gormDB),
		locks:      orderlock.NewRegistry(),
		auditor:    auditrepo.NewGormAuditRecorder(gormDB),
		gateway:    gateway,
		carrier:    carrier,
		logger:     logger,
	}, nil
}

func (c *CompositionRoot) orderUoWFactory() commands.OrderUoWFactory {
	return FuncOrderUoWFactory(func() commands.OrderUoW {
		return c.uowFactory.Create()
	})
}

func (c *CompositionRoot) CreateCancelOrderCommandHandler() commands.CancelOrderCommandHandler {
	return commands.NewCancelOrderCommandHandler(
		c.orderUoWFactory(), c.gateway, c.auditor, c.locks, c.configs.ProviderTimeout, c.logger)
}

func (c *CompositionRoot) CreateCapturePaymentCommandHandler() commands.CapturePaymentCommandHandler {
	return commands.NewCapturePaymentCommandHandler(
		c.orderUoWFactory(), c.gateway, c.auditor, c.locks, c.configs.ProviderTimeout, c.logger)
}

func (c *CompositionRoot) CreateCreateFulfillmentCommandHandler() commands.CreateFulfillmentCommandHandler {
	return commands.NewCreateFulfillmentCommandHandler(
		c.orderUoWFactory(), c.carrier, c.auditor, c.locks, c.configs.ProviderTimeout, c.logger)
}

func (c *CompositionRoot) CreateProcessRefundCommandHandler() commands.ProcessRefundCommandHandler {
	return commands.NewProcessRefundCommandHandler(
		c.orderUoWFactory(), c.gateway, c.auditor, c.locks, c.configs.ProviderTimeout, c.logger)
}

func (c *CompositionRoot) CreateUpdateShipmentTrackingCommandHandler() commands.UpdateShipmentTrackingCommandHandler {
	return commands.NewUpdateShipmentTrackingCommandHandler(
		c.orderUoWFactory(), c.auditor, c.locks, c.logger)
}

func (c *CompositionRoot) CreateGetOrdersQueryHandler() queries.GetOrdersQueryHandler {
	return queries.NewGetOrdersQueryHandler(c.gormDB)
}

func (c *CompositionRoot) CreateExportOrdersQueryHandler() queries.ExportOrdersQueryHandler {
	return queries.NewExportOrdersQueryHandler(c.gormDB)
}

func (c *CompositionRoot) CreateGetActiveShipmentsQueryHandler() queries.GetActiveShipmentsQueryHandler {
	return queries.NewGetActiveShipmentsQueryHandler(c.gormDB)
}

func (c *CompositionRoot) CreateHTTPServer() *orderhttp.Server {
	return orderhttp.NewServer(
		c.CreateCancelOrderCommandHandler(),
		c.CreateCapturePaymentCommandHandler(),
		c.CreateCreateFulfillmentCommandHandler(),
		c.CreateProcessRefundCommandHandler(),
		c.CreateUpdateShipmentTrackingCommandHandler(),
		c.CreateGetOrdersQueryHandler(),
		c.CreateExportOrdersQueryHandler(),
		c.gateway,
		c.carrier,
		c.auditor,
		c.logger,
	)
}

func (c *CompositionRoot) CreateJobManager() *jobs.JobManager {
	trackingRefreshJob := jobs.NewTrackingRefreshJob(
		c.CreateGetActiveShipmentsQueryHandler(),
		c.carrier,
		c.CreateUpdateShipmentTrackingCommandHandler(),
		c.configs.TrackingRefreshSchedule,
		c.configs.ProviderTimeout,
		c.logger,
	)
	return jobs.NewJobManager(trackingRefreshJob)
}

type FuncOrderUoWFactory func() commands.OrderUoW

func (f FuncOrderUoWFactory) Create() commands.OrderUoW {
	return f()
}
