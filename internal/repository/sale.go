package repository

import (
	"encoding/json"
	"errors"

	"github.com/artmart/marketplace-engine/internal/elastic_search"
	"github.com/artmart/marketplace-engine/internal/entity"
	"github.com/olivere/elastic/v7"
)

var (
	ErrSaleNotFound = errors.New("sale not found")
)

type SaleRepository interface {
	GetSale(id string) (entity.SaleReceipt, error)
	GetSalesForAsset(contract string, tokenId uint64) ([]entity.SaleReceipt, error)
	GetSalesForAccount(account string, size int) ([]entity.SaleReceipt, error)
}

type saleRepository struct {
	elastic elastic_search.Index
}

func NewSaleRepository(elastic elastic_search.Index) SaleRepository {
	return saleRepository{elastic}
}

func (r saleRepository) GetSale(id string) (entity.SaleReceipt, error) {
	query := elastic.NewTermQuery("id.keyword", id)

	result, err := search(r.elastic.GetClient().
		Search(elastic_search.SaleIndex.Get()).
		Query(query).
		Size(1))

	return r.findOne(result, err)
}

func (r saleRepository) GetSalesForAsset(contract string, tokenId uint64) ([]entity.SaleReceipt, error) {
	query := elastic.NewBoolQuery().Must(
		elastic.NewTermQuery("asset.contract.keyword", contract),
		elastic.NewTermQuery("asset.tokenId", tokenId),
	)

	result, err := search(r.elastic.GetClient().
		Search(elastic_search.SaleIndex.Get()).
		Query(query).
		Sort("timestamp", false).
		Size(100))

	return r.findAll(result, err)
}

func (r saleRepository) GetSalesForAccount(account string, size int) ([]entity.SaleReceipt, error) {
	query := elastic.NewBoolQuery().Should(
		elastic.NewTermQuery("seller.keyword", account),
		elastic.NewTermQuery("buyer.keyword", account),
	).MinimumNumberShouldMatch(1)

	result, err := search(r.elastic.GetClient().
		Search(elastic_search.SaleIndex.Get()).
		Query(query).
		Sort("timestamp", false).
		Size(size))

	return r.findAll(result, err)
}

func (r saleRepository) findOne(results *elastic.SearchResult, err error) (entity.SaleReceipt, error) {
	if err != nil {
		return entity.SaleReceipt{}, err
	}

	if len(results.Hits.Hits) == 0 {
		return entity.SaleReceipt{}, ErrSaleNotFound
	}

	var sale entity.SaleReceipt
	hit := results.Hits.Hits[0]
	err = json.Unmarshal(hit.Source, &sale)

	return sale, err
}

func (r saleRepository) findAll(results *elastic.SearchResult, err error) ([]entity.SaleReceipt, error) {
	sales := make([]entity.SaleReceipt, 0)
	if err != nil {
		return sales, err
	}

	for _, hit := range results.Hits.Hits {
		var sale entity.SaleReceipt
		if err := json.Unmarshal(hit.Source, &sale); err != nil {
			return sales, err
		}
		sales = append(sales, sale)
	}

	return sales, nil
}
