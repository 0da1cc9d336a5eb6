package http

import (
	"go.uber.org/fx"

	bidtransport "github.com/Argor01/OkoZnaniy-sub000/internal/transport/http/bid"
	filetransport "github.com/Argor01/OkoZnaniy-sub000/internal/transport/http/file"
	offertransport "github.com/Argor01/OkoZnaniy-sub000/internal/transport/http/offer"
	ordertransport "github.com/Argor01/OkoZnaniy-sub000/internal/transport/http/order"
)

// Module aggregates all HTTP transport handlers.
var Module = fx.Options(
	ordertransport.Module,
	bidtransport.Module,
	offertransport.Module,
	filetransport.Module,
)
