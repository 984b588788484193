package tenancy

import "errors"

// Errores del subsistema de aislamiento multi-tenant. El middleware y los
// handlers los mapean a la respuesta HTTP {success:false, code, message}.
var (
	// ErrInvalidModel modelo no registrado en el Registry. Error de programación
	// (400), pero se falla cerrado: jamás se despacha una consulta sin scope.
	ErrInvalidModel = errors.New("tenancy: modelo no registrado")

	// ErrOrganizationAccess lectura por ID de una fila que pertenece a otra
	// organización (chequeo post-fetch de propiedad).
	ErrOrganizationAccess = errors.New("tenancy: la fila pertenece a otra organización")

	// ErrOrganizationAccessDenied identidad verificada pero sin membership ni
	// tenant primario que coincida.
	ErrOrganizationAccessDenied = errors.New("tenancy: acceso a la organización denegado")

	// ErrOrganizationNotActive la organización existe pero está desactivada.
	ErrOrganizationNotActive = errors.New("tenancy: organización inactiva")

	// ErrVerificationStorage fallo de la DB durante la verificación. Se distingue
	// de una denegación para que el monitoreo alerte en vez de degradar en silencio.
	ErrVerificationStorage = errors.New("tenancy: almacenamiento no disponible durante verificación")

	// ErrInvalidFilter columna de filtro con identificador inválido (solo
	// [a-z0-9_] en minúsculas; nunca se interpola texto del cliente en SQL).
	ErrInvalidFilter = errors.New("tenancy: filtro con columna inválida")

	// ErrNestedTransaction Transaction dentro de Transaction no está soportado.
	ErrNestedTransaction = errors.New("tenancy: transacción anidada no soportada")
)
