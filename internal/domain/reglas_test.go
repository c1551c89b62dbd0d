package domain

import "testing"

func actor(rol RolUsuario, activo bool) *Usuario {
	return &Usuario{Nombre: "Actor", Email: "actor@x.com", Rol: rol, Activo: activo}
}

func TestPredicadosPorRol(t *testing.T) {
	tests := []struct {
		name      string
		usuario   *Usuario
		donar     bool
		crear     bool
		aprobar   bool
		gestionar bool
	}{
		{"nil", nil, false, false, false, false},
		{"donante activo", actor(RolDonante, true), true, false, false, false},
		{"donante inactivo", actor(RolDonante, false), false, false, false, false},
		{"lider activo", actor(RolLiderSocial, true), true, true, false, false},
		{"lider inactivo", actor(RolLiderSocial, false), false, false, false, false},
		{"admin activo", actor(RolAdministrador, true), true, true, true, true},
		{"admin inactivo", actor(RolAdministrador, false), false, false, false, false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := PuedeDonar(tc.usuario); got != tc.donar {
				t.Errorf("PuedeDonar = %v, want %v", got, tc.donar)
			}
			if got := PuedeCrearSolicitudes(tc.usuario); got != tc.crear {
				t.Errorf("PuedeCrearSolicitudes = %v, want %v", got, tc.crear)
			}
			if got := PuedeAprobarSolicitudes(tc.usuario); got != tc.aprobar {
				t.Errorf("PuedeAprobarSolicitudes = %v, want %v", got, tc.aprobar)
			}
			if got := PuedeGestionarUsuarios(tc.usuario); got != tc.gestionar {
				t.Errorf("PuedeGestionarUsuarios = %v, want %v", got, tc.gestionar)
			}
			if got := PuedeGestionarDonaciones(tc.usuario); got != tc.gestionar {
				t.Errorf("PuedeGestionarDonaciones = %v, want %v", got, tc.gestionar)
			}
		})
	}
}

func TestPuedeModificar(t *testing.T) {
	objetivo := &Usuario{Email: "otro@x.com", Rol: RolDonante, Activo: true}

	if PuedeModificar(nil, objetivo) {
		t.Fatal("nil actor should not modify")
	}
	if PuedeModificar(actor(RolDonante, true), nil) {
		t.Fatal("nil objetivo should not be modifiable")
	}
	if PuedeModificar(actor(RolAdministrador, false), objetivo) {
		t.Fatal("inactive admin should not modify")
	}

	mismo := actor(RolDonante, true)
	propio := &Usuario{Email: mismo.Email, Rol: RolDonante, Activo: true}
	if !PuedeModificar(mismo, propio) {
		t.Fatal("user should modify itself")
	}
	if PuedeModificar(actor(RolDonante, true), objetivo) {
		t.Fatal("donante should not modify others")
	}
	if !PuedeModificar(actor(RolAdministrador, true), objetivo) {
		t.Fatal("admin should modify anyone")
	}
}

func TestPuedeCambiarRol(t *testing.T) {
	if PuedeCambiarRol(nil, RolDonante) {
		t.Fatal("nil actor")
	}
	if PuedeCambiarRol(actor(RolAdministrador, true), "") {
		t.Fatal("empty rol")
	}
	if PuedeCambiarRol(actor(RolLiderSocial, true), RolDonante) {
		t.Fatal("non-admin should not change roles")
	}
	if PuedeCambiarRol(actor(RolAdministrador, false), RolDonante) {
		t.Fatal("inactive admin should not change roles")
	}
	if !PuedeCambiarRol(actor(RolAdministrador, true), RolAdministrador) {
		t.Fatal("active admin should assign any rol")
	}
}

func TestValidarCambioEstado(t *testing.T) {
	admin := actor(RolAdministrador, true)

	// último admin activo no se puede desactivar
	if err := ValidarCambioEstado(admin, false, 1); err == nil || !IsValidation(err) {
		t.Fatalf("expected validation error, got %v", err)
	}
	// con dos admins activos sí
	if err := ValidarCambioEstado(admin, false, 2); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// activar nunca falla
	if err := ValidarCambioEstado(admin, true, 1); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// desactivar no-admins nunca falla
	if err := ValidarCambioEstado(actor(RolDonante, true), false, 1); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestValidarEmailUnico(t *testing.T) {
	if err := ValidarEmailUnico(false); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := ValidarEmailUnico(true); err == nil || !IsValidation(err) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestValidarDonacionNoDuplicada(t *testing.T) {
	if err := ValidarDonacionNoDuplicada(false); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := ValidarDonacionNoDuplicada(true); err == nil || !IsState(err) {
		t.Fatalf("expected state error, got %v", err)
	}
}

func TestNivelPrivilegio(t *testing.T) {
	if NivelPrivilegio(RolAdministrador) != 3 || NivelPrivilegio(RolLiderSocial) != 2 || NivelPrivilegio(RolDonante) != 1 {
		t.Fatal("unexpected privilege levels")
	}
	if !TieneMasPrivilegios(RolAdministrador, RolDonante) {
		t.Fatal("admin should outrank donante")
	}
	if TieneMasPrivilegios(RolDonante, RolDonante) {
		t.Fatal("equal roles should not outrank")
	}
}
