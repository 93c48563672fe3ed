package redisx

import (
	"fmt"
	"time"
)

const (
	// product:{id} -> product JSON
	KeyProduct = "product:%s"
	// products:page:{page}:per_page:{per_page} -> product list JSON
	KeyProductsPage = "products:page:%d:per_page:%d"
	// order:{id} -> order JSON
	KeyOrder = "order:%s"
	// orders:page:{page}:per_page:{per_page} -> order list JSON
	KeyOrdersPage = "orders:page:%d:per_page:%d"
)

var TTLRead = 150 * time.Second

func ProductKey(id string) string { return fmt.Sprintf(KeyProduct, id) }

func ProductsPageKey(page, perPage int) string { return fmt.Sprintf(KeyProductsPage, page, perPage) }

func OrderKey(id string) string { return fmt.Sprintf(KeyOrder, id) }

func OrdersPageKey(page, perPage int) string { return fmt.Sprintf(KeyOrdersPage, page, perPage) }
