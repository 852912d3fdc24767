package indexer

import (
	"time"

	"github.com/artmart/marketplace-engine/internal/dev"
	"github.com/artmart/marketplace-engine/internal/elastic_search"
	"github.com/artmart/marketplace-engine/internal/entity"
	"github.com/artmart/marketplace-engine/internal/event"
	"github.com/artmart/marketplace-engine/internal/messenger"
	"github.com/artmart/marketplace-engine/internal/webhook"
	"go.uber.org/zap"
)

// AuditIndexer mirrors marketplace activity into the audit index and fans
// completed sales out to the message queue and the webhook.
type AuditIndexer interface {
	Subscribe()
}

type auditIndexer struct {
	elastic  elastic_search.Index
	queue    messenger.MessageService
	notifier webhook.Notifier
}

func NewAuditIndexer(elastic elastic_search.Index, queue messenger.MessageService, notifier webhook.Notifier) AuditIndexer {
	return auditIndexer{elastic, queue, notifier}
}

func (i auditIndexer) Subscribe() {
	event.AddEventListener(event.AssetListedEvent, i.onListed)
	event.AddEventListener(event.AssetDelistedEvent, i.onDelisted)
	event.AddEventListener(event.SaleCompletedEvent, i.onSale)

	zap.L().Info("AuditIndexer: Subscribed to marketplace events")
}

func (i auditIndexer) onListed(msg interface{}) {
	payload, ok := msg.(event.AssetListedPayload)
	if !ok {
		return
	}

	i.elastic.AddIndexRequest(elastic_search.ListingIndex.Get(), payload.Listing, elastic_search.ListingCreate)

	action := entity.ListingAction{
		Type:      entity.ListedAction,
		Asset:     payload.Listing.Asset,
		Seller:    payload.Listing.Seller,
		Price:     payload.Listing.VisiblePrice(),
		Currency:  payload.Listing.Currency,
		IsPrivate: payload.Listing.IsPrivate,
		Timestamp: time.Now().UTC(),
	}
	i.elastic.AddIndexRequest(elastic_search.ListingActionIndex.Get(), action, elastic_search.ListingActionCreate)
	i.publishAction(action)
}

func (i auditIndexer) onDelisted(msg interface{}) {
	payload, ok := msg.(event.AssetDelistedPayload)
	if !ok {
		return
	}

	action := entity.ListingAction{
		Type:      entity.DelistedAction,
		Asset:     payload.Asset,
		Seller:    payload.Seller,
		Timestamp: time.Now().UTC(),
	}
	i.elastic.AddIndexRequest(elastic_search.ListingActionIndex.Get(), action, elastic_search.ListingActionCreate)
	i.publishAction(action)
}

func (i auditIndexer) onSale(msg interface{}) {
	payload, ok := msg.(event.SaleCompletedPayload)
	if !ok {
		return
	}

	i.elastic.Save(elastic_search.SaleIndex.Get(), payload.Receipt)

	action := entity.ListingAction{
		Type:      entity.SoldAction,
		Asset:     payload.Receipt.Asset,
		Seller:    payload.Receipt.Seller,
		Price:     payload.Receipt.BasePrice,
		Currency:  payload.Receipt.Currency,
		Timestamp: payload.Receipt.Timestamp,
	}
	i.elastic.AddIndexRequest(elastic_search.ListingActionIndex.Get(), action, elastic_search.ListingActionCreate)

	i.publishSale(payload.Receipt)

	if err := i.notifier.Notify(string(event.SaleCompletedEvent), payload.Receipt); err != nil {
		i.elastic.Save(elastic_search.ErrorIndex.Get(),
			dev.NewError("auditIndexer", "webhookNotify", err, map[string]interface{}{"sale": payload.Receipt.ID}))
	}
}

func (i auditIndexer) publishSale(receipt entity.SaleReceipt) {
	if err := i.queue.PublishSaleReceipt(receipt); err != nil {
		i.elastic.Save(elastic_search.ErrorIndex.Get(),
			dev.NewError("auditIndexer", "publishSale", err, map[string]interface{}{"sale": receipt.ID}))
	}
}

func (i auditIndexer) publishAction(action entity.ListingAction) {
	if err := i.queue.PublishListingAction(action); err != nil {
		zap.L().With(zap.Error(err), zap.String("action", string(action.Type))).
			Warn("AuditIndexer: Failed to publish listing action")
	}
}
