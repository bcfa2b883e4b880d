package api

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	changeContractStatusHandler "github.com/m04kA/SMC-RentalService/internal/api/handlers/change_contract_status"
	changeVehicleStatusHandler "github.com/m04kA/SMC-RentalService/internal/api/handlers/change_vehicle_status"
	createClientHandler "github.com/m04kA/SMC-RentalService/internal/api/handlers/create_client"
	createContractHandler "github.com/m04kA/SMC-RentalService/internal/api/handlers/create_contract"
	createVehicleHandler "github.com/m04kA/SMC-RentalService/internal/api/handlers/create_vehicle"
	deleteClientHandler "github.com/m04kA/SMC-RentalService/internal/api/handlers/delete_client"
	deleteContractHandler "github.com/m04kA/SMC-RentalService/internal/api/handlers/delete_contract"
	deleteVehicleHandler "github.com/m04kA/SMC-RentalService/internal/api/handlers/delete_vehicle"
	getAvailableVehiclesHandler "github.com/m04kA/SMC-RentalService/internal/api/handlers/get_available_vehicles"
	getClientHandler "github.com/m04kA/SMC-RentalService/internal/api/handlers/get_client"
	getContractHandler "github.com/m04kA/SMC-RentalService/internal/api/handlers/get_contract"
	getVehicleHandler "github.com/m04kA/SMC-RentalService/internal/api/handlers/get_vehicle"
	listClientsHandler "github.com/m04kA/SMC-RentalService/internal/api/handlers/list_clients"
	listContractsHandler "github.com/m04kA/SMC-RentalService/internal/api/handlers/list_contracts"
	listVehiclesHandler "github.com/m04kA/SMC-RentalService/internal/api/handlers/list_vehicles"
	triggerReconciliationHandler "github.com/m04kA/SMC-RentalService/internal/api/handlers/trigger_reconciliation"
	updateClientHandler "github.com/m04kA/SMC-RentalService/internal/api/handlers/update_client"
	updateContractHandler "github.com/m04kA/SMC-RentalService/internal/api/handlers/update_contract"
	updateVehicleHandler "github.com/m04kA/SMC-RentalService/internal/api/handlers/update_vehicle"
	"github.com/m04kA/SMC-RentalService/internal/api/middleware"
	"github.com/m04kA/SMC-RentalService/pkg/metrics"
)

// ContractService всё, что нужно обработчикам контрактов (*contracts.Service)
type ContractService interface {
	createContractHandler.ContractService
	getContractHandler.ContractService
	listContractsHandler.ContractService
	updateContractHandler.ContractService
	changeContractStatusHandler.ContractService
	deleteContractHandler.ContractService
}

// VehicleService всё, что нужно обработчикам автомобилей (*vehicles.Service)
type VehicleService interface {
	createVehicleHandler.VehicleService
	getVehicleHandler.VehicleService
	listVehiclesHandler.VehicleService
	getAvailableVehiclesHandler.VehicleService
	updateVehicleHandler.VehicleService
	changeVehicleStatusHandler.VehicleService
	deleteVehicleHandler.VehicleService
}

// ClientService всё, что нужно обработчикам клиентов (*clients.Service)
type ClientService interface {
	createClientHandler.ClientService
	getClientHandler.ClientService
	listClientsHandler.ClientService
	updateClientHandler.ClientService
	deleteClientHandler.ClientService
}

type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}

// Dependencies зависимости HTTP слоя
type Dependencies struct {
	Contracts ContractService
	Vehicles  VehicleService
	Clients   ClientService
	// Reconciliation может быть nil: тогда ручной запуск сверки не регистрируется
	Reconciliation triggerReconciliationHandler.Scheduler
	// Metrics может быть nil: тогда /metrics и middleware метрик не подключаются
	Metrics     *metrics.Metrics
	MetricsPath string
	Logger      Logger
}

// NewRouter собирает маршруты /api/v1
func NewRouter(deps Dependencies) *mux.Router {
	log := deps.Logger

	createContract := createContractHandler.NewHandler(deps.Contracts, log)
	getContract := getContractHandler.NewHandler(deps.Contracts, log)
	listContracts := listContractsHandler.NewHandler(deps.Contracts, log)
	updateContract := updateContractHandler.NewHandler(deps.Contracts, log)
	changeContractStatus := changeContractStatusHandler.NewHandler(deps.Contracts, log)
	deleteContract := deleteContractHandler.NewHandler(deps.Contracts, log)

	createVehicle := createVehicleHandler.NewHandler(deps.Vehicles, log)
	getVehicle := getVehicleHandler.NewHandler(deps.Vehicles, log)
	listVehicles := listVehiclesHandler.NewHandler(deps.Vehicles, log)
	getAvailableVehicles := getAvailableVehiclesHandler.NewHandler(deps.Vehicles, log)
	updateVehicle := updateVehicleHandler.NewHandler(deps.Vehicles, log)
	changeVehicleStatus := changeVehicleStatusHandler.NewHandler(deps.Vehicles, log)
	deleteVehicle := deleteVehicleHandler.NewHandler(deps.Vehicles, log)

	createClient := createClientHandler.NewHandler(deps.Clients, log)
	getClient := getClientHandler.NewHandler(deps.Clients, log)
	listClients := listClientsHandler.NewHandler(deps.Clients, log)
	updateClient := updateClientHandler.NewHandler(deps.Clients, log)
	deleteClient := deleteClientHandler.NewHandler(deps.Clients, log)

	r := mux.NewRouter()
	r.Use(middleware.Logging(log))

	if deps.Metrics != nil {
		r.Use(middleware.Metrics(deps.Metrics))
		path := deps.MetricsPath
		if path == "" {
			path = "/metrics"
		}
		r.Handle(path, promhttp.Handler()).Methods(http.MethodGet)
	}

	api := r.PathPrefix("/api/v1").Subrouter()

	// --- Контракты ---
	api.HandleFunc("/contracts", createContract.Handle).Methods(http.MethodPost)
	api.HandleFunc("/contracts", listContracts.Handle).Methods(http.MethodGet)
	api.HandleFunc("/contracts/{contractId}", getContract.Handle).Methods(http.MethodGet)
	api.HandleFunc("/contracts/{contractId}", updateContract.Handle).Methods(http.MethodPut)
	api.HandleFunc("/contracts/{contractId}", deleteContract.Handle).Methods(http.MethodDelete)
	api.HandleFunc("/contracts/{contractId}/{action:"+changeContractStatusHandler.ActionPattern+"}",
		changeContractStatus.Handle).Methods(http.MethodPost)

	// --- Автомобили ---
	// /vehicles/available регистрируется раньше /vehicles/{vehicleId}
	api.HandleFunc("/vehicles/available", getAvailableVehicles.Handle).Methods(http.MethodGet)
	api.HandleFunc("/vehicles", createVehicle.Handle).Methods(http.MethodPost)
	api.HandleFunc("/vehicles", listVehicles.Handle).Methods(http.MethodGet)
	api.HandleFunc("/vehicles/{vehicleId}", getVehicle.Handle).Methods(http.MethodGet)
	api.HandleFunc("/vehicles/{vehicleId}", updateVehicle.Handle).Methods(http.MethodPut)
	api.HandleFunc("/vehicles/{vehicleId}", deleteVehicle.Handle).Methods(http.MethodDelete)
	api.HandleFunc("/vehicles/{vehicleId}/{action:"+changeVehicleStatusHandler.ActionPattern+"}",
		changeVehicleStatus.Handle).Methods(http.MethodPost)

	// --- Клиенты ---
	api.HandleFunc("/clients", createClient.Handle).Methods(http.MethodPost)
	api.HandleFunc("/clients", listClients.Handle).Methods(http.MethodGet)
	api.HandleFunc("/clients/{clientId}", getClient.Handle).Methods(http.MethodGet)
	api.HandleFunc("/clients/{clientId}", updateClient.Handle).Methods(http.MethodPut)
	api.HandleFunc("/clients/{clientId}", deleteClient.Handle).Methods(http.MethodDelete)

	// --- Администрирование ---
	if deps.Reconciliation != nil {
		trigger := triggerReconciliationHandler.NewHandler(deps.Reconciliation, log)
		api.HandleFunc("/admin/reconciliation", trigger.Handle).Methods(http.MethodPost)
	}

	return r
}
