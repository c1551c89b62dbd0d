package domain

// Reglas de negocio puras sobre usuarios y donaciones. Operan sobre el
// estado en memoria y nunca consultan almacenamiento.

// PuedeDonar indica si un usuario puede registrar donaciones.
// Todos los usuarios activos pueden donar.
func PuedeDonar(usuario *Usuario) bool {
	return usuario != nil && usuario.Activo
}

// PuedeCrearSolicitudes indica si un usuario puede crear solicitudes.
// Solo líderes sociales y administradores activos.
func PuedeCrearSolicitudes(usuario *Usuario) bool {
	if usuario == nil || !usuario.Activo {
		return false
	}
	return usuario.Rol == RolLiderSocial || usuario.Rol == RolAdministrador
}

// PuedeAprobarSolicitudes indica si un usuario puede aprobar solicitudes.
// Solo administradores activos.
func PuedeAprobarSolicitudes(usuario *Usuario) bool {
	if usuario == nil || !usuario.Activo {
		return false
	}
	return usuario.Rol == RolAdministrador
}

// PuedeGestionarUsuarios indica si un usuario puede administrar cuentas.
// Solo administradores activos.
func PuedeGestionarUsuarios(usuario *Usuario) bool {
	if usuario == nil || !usuario.Activo {
		return false
	}
	return usuario.Rol == RolAdministrador
}

// PuedeGestionarDonaciones indica si un usuario puede confirmar o
// rechazar donaciones.
func PuedeGestionarDonaciones(usuario *Usuario) bool {
	if usuario == nil || !usuario.Activo {
		return false
	}
	return usuario.Rol == RolAdministrador
}

// PuedeModificar indica si actor puede modificar a objetivo: cada usuario
// puede modificarse a sí mismo y un administrador puede modificar a
// cualquiera.
func PuedeModificar(actor, objetivo *Usuario) bool {
	if actor == nil || objetivo == nil {
		return false
	}
	if !actor.Activo {
		return false
	}
	if actor.Email == objetivo.Email {
		return true
	}
	return actor.Rol == RolAdministrador
}

// PuedeCambiarRol indica si actor puede asignar nuevoRol a otra cuenta.
// Solo administradores activos; asignar ADMINISTRADOR exige serlo.
func PuedeCambiarRol(actor *Usuario, nuevoRol RolUsuario) bool {
	if actor == nil || nuevoRol == "" {
		return false
	}
	if !actor.Activo {
		return false
	}
	if actor.Rol != RolAdministrador {
		return false
	}
	return nuevoRol != RolAdministrador || actor.Rol == RolAdministrador
}

// ValidarEmailUnico falla si el email ya existe en el sistema.
func ValidarEmailUnico(emailExiste bool) error {
	if emailExiste {
		return NewValidation("el email ya está registrado en el sistema")
	}
	return nil
}

// ValidarDonacionNoDuplicada falla si el usuario ya tiene una donación
// pendiente.
func ValidarDonacionNoDuplicada(existePendiente bool) error {
	if existePendiente {
		return NewState("ya existe una donación pendiente, por favor espere a que sea confirmada")
	}
	return nil
}

// ValidarCambioEstado impide desactivar al último administrador activo.
// La cantidad de administradores activos la aporta quien llama (agregado de
// almacenamiento); aquí no se consulta nada.
func ValidarCambioEstado(usuario *Usuario, nuevoEstado bool, cantidadAdminsActivos int64) error {
	if usuario.Rol == RolAdministrador && usuario.Activo && !nuevoEstado && cantidadAdminsActivos <= 1 {
		return NewValidation("no se puede desactivar al último administrador del sistema")
	}
	return nil
}

// NivelPrivilegio devuelve el orden total de privilegios de un rol.
func NivelPrivilegio(rol RolUsuario) int {
	switch rol {
	case RolAdministrador:
		return 3
	case RolLiderSocial:
		return 2
	case RolDonante:
		return 1
	default:
		return 0
	}
}

// TieneMasPrivilegios indica si rol1 supera en privilegios a rol2.
func TieneMasPrivilegios(rol1, rol2 RolUsuario) bool {
	return NivelPrivilegio(rol1) > NivelPrivilegio(rol2)
}
